package cli_test

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gyaneshwarpardhi/plantboard/internal/cli"
	"github.com/gyaneshwarpardhi/plantboard/internal/dashboard"
	"github.com/gyaneshwarpardhi/plantboard/internal/dataset"
)

const rows = "Timestamp,TIPO DE EVENTO A REGISTRAR,FECHA DE LA PRODUCCIÓN,MAQUINA UTILIZADA,¿HUBO PRODUCCIÓN?,PRODUCTO PRODUCIDO,CANTIDAD PRODUCIDA,UNIDAD DE MEDIDA,HORA DE INICIO DE LA PRODUCCÓN,HORA DE FIN DE LA PRODUCCÓN,FECHA DEL INCIDENTE o PARADA,MAQUINA ASOCIADA AL INCIDENTE O PARADA,OBSERVACIONES ADICIONALES\n" +
	"2024-01-02 09:15:00,Producción,2024-01-02,Blistera A,Sí,Ibuprofeno,1200,Blisters,8:00 a.m.,4:00 p.m.,,,\n" +
	"2024-01-03 10:00:00,Incidentes y Paradas,,,,,,,,,2024-01-03,Blistera A,\n"

func writeRows(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rows.csv")
	if err := os.WriteFile(path, []byte(rows), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := cli.NewRootCommand()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestViewSummary(t *testing.T) {
	path := writeRows(t)
	out, err := run(t, "view", "summary", "--data", path, "--from", "2024-01-01", "--to", "2024-01-31")
	if err != nil {
		t.Fatalf("view summary: %v", err)
	}
	var sum dashboard.Summary
	if err := json.Unmarshal([]byte(out), &sum); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if sum.Total != 2 || sum.Counts.Production != 1 || sum.Counts.Incidents != 1 {
		t.Errorf("summary = %+v", sum)
	}
}

func TestViewFromEnv(t *testing.T) {
	t.Setenv("PLANTBOARD_DATA", writeRows(t))
	out, err := run(t, "view", "drilldown", "--category", "Producción", "--pretty")
	if err != nil {
		t.Fatalf("view drilldown: %v", err)
	}
	if !strings.Contains(out, "\n  \"category\"") {
		t.Errorf("expected indented output, got %s", out)
	}
}

func TestViewErrors(t *testing.T) {
	path := writeRows(t)
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"unknown view", []string{"view", "trends", "--data", path}, "unknown view"},
		{"bad date", []string{"view", "summary", "--data", path, "--from", "2024/01/01"}, "invalid query"},
		{"missing file", []string{"view", "summary", "--data", filepath.Join(t.TempDir(), "nope.csv")}, "not found"},
		{"production chart needs product", []string{"chart", "production", "--data", path}, "--product"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, tt.args...)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("err = %v, want it to mention %q", err, tt.want)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	out, err := run(t, "validate", "--data", writeRows(t))
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	var st dataset.Status
	if err := json.Unmarshal([]byte(out), &st); err != nil {
		t.Fatal(err)
	}
	if st.State != dataset.StateReady || st.Rows != 2 {
		t.Errorf("status = %+v", st)
	}

	out, err = run(t, "validate", "--data", filepath.Join(t.TempDir(), "missing.csv"))
	if err == nil {
		t.Fatal("validate should fail on a missing file")
	}
	if !strings.Contains(out, string(dataset.StateNotFound)) {
		t.Errorf("status output = %s", out)
	}
}

func TestChartToFile(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "categories.png")
	if _, err := run(t, "chart", "categories", "--data", writeRows(t), "-o", dest); err != nil {
		t.Fatalf("chart: %v", err)
	}
	img, err := os.ReadFile(dest)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(img, []byte("\x89PNG")) {
		t.Error("not a PNG")
	}
}
