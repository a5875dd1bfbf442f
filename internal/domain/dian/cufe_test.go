package dian_test

import (
	"regexp"
	"testing"

	"github.com/jhoicas/facturacion-api/internal/domain/dian"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ──────────────────────────────────────────────────────────────────────────────
// TestCalculateCufe valida que el cálculo SHA-384 del CUFE produce el hash
// exacto esperado para parámetros conocidos.
//
// Si alguien modifica inadvertidamente la cadena de concatenación, el formato
// de los montos o el algoritmo, este test falla inmediatamente.
//
// Vector de referencia (SHA-384, hex en mayúsculas):
//
//	Cadena = NumFac + FecFac + HorFac + ValFac + "01" + ValImp + ValPag +
//	         NitOfe(10) + DocAdq(10) + ClTec + TipoDoc + TipoAmb
//	       = "SETP990000001" + "2024-01-15" + "10:30:00-05:00" +
//	         "100000000" + "01" + "19000000" + "119000000" +
//	         "0900123456" + "0800987654" +
//	         "fc8eac422eba16e22ffd8c6f94b3f40a" + "01" + "2"
// ──────────────────────────────────────────────────────────────────────────────

const (
	testCufeExpected = "CFA24CFA44EAF06FB8F5DBC2DEED571D32904CE9FC5590A88CEE718EEF9005D30D5DAF39DF5065F376766345A8EE6742"

	testNumFac  = "SETP990000001"
	testFecFac  = "2024-01-15"
	testHorFac  = "10:30:00-05:00"
	testNitOfe  = "900123456"
	testDocAdq  = "800987654"
	testClTec   = "fc8eac422eba16e22ffd8c6f94b3f40a"
	testTipoDoc = "01"
	testTipoAmb = "2"
)

var cufePattern = regexp.MustCompile(`^[0-9A-F]{96}$`)

func TestCalculateCufe_VectorExacto(t *testing.T) {
	svc := dian.NewCufeCalculatorService()

	cufe, err := svc.Calculate(buildTestParams())
	require.NoError(t, err, "Calculate no debe retornar error con parámetros válidos")
	assert.Equal(t, testCufeExpected, cufe,
		"El CUFE debe coincidir exactamente con el vector SHA-384 de referencia")
}

func TestBuildConcatenation_CadenaExacta(t *testing.T) {
	svc := dian.NewCufeCalculatorService()

	cadena, err := svc.BuildConcatenation(buildTestParams())
	require.NoError(t, err)
	assert.Equal(t,
		"SETP9900000012024-01-1510:30:00-05:001000000000119000000119000000"+
			"09001234560800987654fc8eac422eba16e22ffd8c6f94b3f40a012",
		cadena,
		"La cadena de concatenación debe seguir el orden estricto DIAN sin separadores")
}

// TestBuildConcatenation_CodImpPorDefecto verifica que el código de impuesto
// principal es "01" (IVA) si no se indica, y que un código distinto entra a la
// cadena en la misma posición.
func TestBuildConcatenation_CodImpPorDefecto(t *testing.T) {
	svc := dian.NewCufeCalculatorService()

	porDefecto, err := svc.BuildConcatenation(buildTestParams())
	require.NoError(t, err)

	explicito := buildTestParams()
	explicito.CodImp = dian.CodImpIVA
	conIVA, err := svc.BuildConcatenation(explicito)
	require.NoError(t, err)
	assert.Equal(t, porDefecto, conIVA, "CodImp vacío equivale a IVA (01)")

	otro := buildTestParams()
	otro.CodImp = "04" // INC
	conINC, err := svc.BuildConcatenation(otro)
	require.NoError(t, err)
	assert.NotEqual(t, porDefecto, conINC)
	assert.Contains(t, conINC, "1000000000419000000119000000", "el código 04 reemplaza al 01 tras ValFac")
}

// TestBuildConcatenation_MontosSoloDigitos verifica el formato de montos de la
// cadena CUFE: solo dígitos, con dos decimales implícitos.
func TestBuildConcatenation_MontosSoloDigitos(t *testing.T) {
	svc := dian.NewCufeCalculatorService()

	p := buildTestParams()
	p.ValFac = decimal.NewFromFloat(1_000_000.50)
	p.ValImp = decimal.Zero
	p.ValPag = decimal.NewFromFloat(1_000_000.50)

	cadena, err := svc.BuildConcatenation(p)
	require.NoError(t, err)
	assert.Contains(t, cadena, "100000050", "1000000.50 debe formatearse como 100000050")
	assert.Contains(t, cadena, "01"+"000"+"100000050", "cero debe formatearse como 000")
}

// TestBuildConcatenation_NITsRellenados verifica que el NIT del emisor y el
// documento del adquiriente se rellenan con ceros hasta 10 dígitos.
func TestBuildConcatenation_NITsRellenados(t *testing.T) {
	svc := dian.NewCufeCalculatorService()

	p := buildTestParams()
	p.NitOfe = "123456"
	p.DocAdq = "79.123.456" // con puntos de miles: solo dígitos cuentan

	cadena, err := svc.BuildConcatenation(p)
	require.NoError(t, err)
	assert.Contains(t, cadena, "0000123456"+"0079123456")
}

func TestCalculateCufe_DeterministaIgual(t *testing.T) {
	svc := dian.NewCufeCalculatorService()
	params := buildTestParams()

	cufe1, err1 := svc.Calculate(params)
	cufe2, err2 := svc.Calculate(params)

	require.NoError(t, err1)
	require.NoError(t, err2)
	assert.Equal(t, cufe1, cufe2, "El mismo input siempre debe producir el mismo CUFE")
}

func TestCalculateCufe_DiferenteNumFac(t *testing.T) {
	svc := dian.NewCufeCalculatorService()

	p1 := buildTestParams()
	p2 := buildTestParams()
	p2.NumFac = "SETP990000002" // solo cambia el número

	cufe1, _ := svc.Calculate(p1)
	cufe2, _ := svc.Calculate(p2)

	assert.NotEqual(t, cufe1, cufe2,
		"Documentos con números distintos deben tener CUFEs distintos")
}

func TestCalculateCufe_TipoAmbienteAfectaHash(t *testing.T) {
	svc := dian.NewCufeCalculatorService()

	pHabilitacion := buildTestParams()
	pHabilitacion.TipoAmb = "2"

	pProduccion := buildTestParams()
	pProduccion.TipoAmb = "1"

	cufeHab, _ := svc.Calculate(pHabilitacion)
	cufeProd, _ := svc.Calculate(pProduccion)

	assert.NotEqual(t, cufeHab, cufeProd,
		"Los CUFEs de habilitación y producción deben ser distintos")
}

// TestCalculateCufe_FormatoHex valida que el hash tenga exactamente 96
// caracteres hexadecimales en mayúsculas (SHA-384).
func TestCalculateCufe_FormatoHex(t *testing.T) {
	svc := dian.NewCufeCalculatorService()
	cufe, err := svc.Calculate(buildTestParams())
	require.NoError(t, err)
	assert.Regexp(t, cufePattern, cufe,
		"El CUFE debe tener 96 caracteres hexadecimales en mayúsculas")
}

// ── Errores de validación ─────────────────────────────────────────────────────

func TestCalculateCufe_ErrorSiNilParams(t *testing.T) {
	svc := dian.NewCufeCalculatorService()
	_, err := svc.Calculate(nil)
	assert.Error(t, err, "Calculate con nil debe retornar error")
}

func TestCalculateCufe_ErrorSiNumFacVacio(t *testing.T) {
	svc := dian.NewCufeCalculatorService()
	p := buildTestParams()
	p.NumFac = "   "
	_, err := svc.Calculate(p)
	assert.Error(t, err, "Calculate sin NumFac debe retornar error")
}

func TestCalculateCufe_ErrorSiHorFacVacia(t *testing.T) {
	svc := dian.NewCufeCalculatorService()
	p := buildTestParams()
	p.HorFac = ""
	_, err := svc.Calculate(p)
	assert.Error(t, err, "Calculate sin HorFac debe retornar error")
}

func TestCalculateCufe_ErrorSiNitOfeVacio(t *testing.T) {
	svc := dian.NewCufeCalculatorService()
	p := buildTestParams()
	p.NitOfe = "N/A" // sin dígitos
	_, err := svc.Calculate(p)
	assert.Error(t, err, "Calculate sin NitOfe debe retornar error")
}

func TestCalculateCufe_ErrorSiClTecCorta(t *testing.T) {
	svc := dian.NewCufeCalculatorService()
	p := buildTestParams()
	p.ClTec = "abc"
	_, err := svc.Calculate(p)
	assert.Error(t, err, "Calculate con clave técnica menor a 4 caracteres debe retornar error")
}

// ── helper ────────────────────────────────────────────────────────────────────

func buildTestParams() *dian.CufeParams {
	return &dian.CufeParams{
		NumFac:  testNumFac,
		FecFac:  testFecFac,
		HorFac:  testHorFac,
		ValFac:  decimal.NewFromFloat(1_000_000),
		ValImp:  decimal.NewFromFloat(190_000),
		ValPag:  decimal.NewFromFloat(1_190_000),
		NitOfe:  testNitOfe,
		DocAdq:  testDocAdq,
		ClTec:   testClTec,
		TipoDoc: testTipoDoc,
		TipoAmb: testTipoAmb,
	}
}
