// seed_puc genera un script SQL para poblar el catálogo de referencia del PUC
// (Plan Único de Cuentas) a partir del CSV oficial, publicado en ISO-8859-1.
//
// Uso: go run ./cmd/seed_puc [ruta/puc.csv]
// Por defecto busca puc.csv en el directorio actual. Formato esperado:
// codigo;nombre[;naturaleza]. Si falta la naturaleza se deduce del primer
// dígito del código (1 activo, 2 pasivo, 3 patrimonio, 4 ingreso, 5 gasto, 6 costo).
// Escribe: internal/infrastructure/postgres/migrations/002_seed_puc.sql
package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/jhoicas/facturacion-api/internal/domain/accounting"
)

type pucRow struct {
	code, name, nature string
}

func main() {
	csvPath := "puc.csv"
	if len(os.Args) > 1 {
		csvPath = os.Args[1]
	}
	f, err := os.Open(csvPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Abrir CSV: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	reader := csv.NewReader(transform.NewReader(f, charmap.ISO8859_1.NewDecoder()))
	reader.Comma = ';'
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Leer CSV: %v\n", err)
		os.Exit(1)
	}

	var rows []pucRow
	skipped := 0
	for _, rec := range records {
		if len(rec) < 2 {
			skipped++
			continue
		}
		code := strings.TrimSpace(rec[0])
		name := strings.TrimSpace(rec[1])
		if code == "" || name == "" || !isDigits(code) {
			skipped++ // encabezados o filas decorativas
			continue
		}
		nature := ""
		if len(rec) > 2 {
			nature = strings.ToUpper(strings.TrimSpace(rec[2]))
		}
		if nature == "" {
			nature = accounting.NatureForPUCCode(code)
		}
		if nature == "" {
			skipped++
			continue
		}
		rows = append(rows, pucRow{code: code, name: name, nature: nature})
	}
	if len(rows) == 0 {
		fmt.Fprintln(os.Stderr, "El CSV no contiene cuentas válidas")
		os.Exit(1)
	}

	moduleRoot := findModuleRoot()
	outPath := filepath.Join(moduleRoot, "internal", "infrastructure", "postgres", "migrations", "002_seed_puc.sql")
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "Crear directorio: %v\n", err)
		os.Exit(1)
	}
	out, err := os.Create(outPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Crear archivo: %v\n", err)
		os.Exit(1)
	}
	defer out.Close()

	out.WriteString("-- Catálogo de referencia PUC (Plan Único de Cuentas, Decreto 2650)\n")
	out.WriteString("-- Generado desde el CSV oficial con cmd/seed_puc\n\n")
	out.WriteString("INSERT INTO puc_catalog (code, name, nature) VALUES\n")
	for i, r := range rows {
		sep := ","
		if i == len(rows)-1 {
			sep = ""
		}
		fmt.Fprintf(out, "  ('%s', '%s', '%s')%s\n", r.code, escapeSQL(r.name), r.nature, sep)
	}
	out.WriteString("ON CONFLICT (code) DO UPDATE SET name = EXCLUDED.name, nature = EXCLUDED.nature;\n")

	fmt.Printf("Generado %s: %d cuentas (%d filas descartadas)\n", outPath, len(rows), skipped)
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func escapeSQL(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

func findModuleRoot() string {
	dir, _ := os.Getwd()
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return dir
		}
		dir = parent
	}
}
