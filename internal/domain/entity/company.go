package entity

import "time"

// Company representa la empresa emisora (obligado a facturar).
type Company struct {
	ID                 string
	Name               string
	NIT                string // Número de identificación tributaria, sin dígito de verificación
	DV                 string // Dígito de verificación (módulo 11 DIAN)
	Address            string
	City               string
	CityCode           string // Código DANE del municipio
	Department         string
	DepartmentCode     string
	Email              string
	Phone              string
	TaxResponsibility  string // Código de responsabilidad fiscal (O-13, O-15, O-23, O-47, R-99-PN)
	TaxRegime          string // 48 = responsable de IVA, 49 = no responsable
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Customer representa el adquiriente del documento.
type Customer struct {
	ID             string
	CompanyID      string
	Name           string
	IDType         string // Tipo de identificación DIAN (31 = NIT, 13 = cédula)
	IDNumber       string
	DV             string // Dígito de verificación si IDType es NIT
	Address        string
	City           string
	CityCode       string
	Department     string
	DepartmentCode string
	Email          string
	Phone          string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
