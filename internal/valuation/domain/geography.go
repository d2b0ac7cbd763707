package domain

import "strings"

// StreetTypes lists the street kinds accepted in a location.
var StreetTypes = []string{
	"Calle", "Avenida", "Plaza", "Paseo", "Ronda", "Travesía",
	"Carretera", "Camino", "Pasaje", "Bulevar", "Glorieta", "Cuesta",
}

// Provinces lists the Spanish provinces by the names the form uses.
var Provinces = []string{
	"Álava", "Albacete", "Alicante", "Almería", "Asturias", "Ávila", "Badajoz", "Barcelona", "Burgos", "Cáceres",
	"Cádiz", "Cantabria", "Castellón", "Ciudad Real", "Córdoba", "Cuenca", "Girona", "Granada", "Guadalajara",
	"Guipúzcoa", "Huelva", "Huesca", "Islas Baleares", "Jaén", "La Coruña", "La Rioja", "Las Palmas", "León",
	"Lleida", "Lugo", "Madrid", "Málaga", "Murcia", "Navarra", "Ourense", "Palencia", "Pontevedra", "Salamanca",
	"Santa Cruz de Tenerife", "Segovia", "Sevilla", "Soria", "Tarragona", "Teruel", "Toledo", "Valencia",
	"Valladolid", "Vizcaya", "Zamora", "Zaragoza", "Ceuta", "Melilla",
}

// CanonicalProvince returns the listed spelling of name, compared without
// case, or name unchanged when it is not listed.
func CanonicalProvince(name string) string {
	for _, p := range Provinces {
		if strings.EqualFold(p, name) {
			return p
		}
	}
	return name
}

// ValidPostalCode reports whether code is five digits with a province prefix
// between 01 and 52.
func ValidPostalCode(code string) bool {
	if len(code) != 5 {
		return false
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return false
		}
	}
	prefix := int(code[0]-'0')*10 + int(code[1]-'0')
	return prefix >= 1 && prefix <= 52
}
