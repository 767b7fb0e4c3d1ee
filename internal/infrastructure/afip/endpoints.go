package afip

// Identificadores de entorno AFIP.
const (
	EnvProduction   = "produccion"
	EnvHomologation = "homologacion"
)

// URLs de los web services por entorno.
const (
	wsaaURLProd = "https://wsaa.afip.gov.ar/ws/services/LoginCms"
	wsaaURLHomo = "https://wsaahomo.afip.gov.ar/ws/services/LoginCms"

	wsfeURLProd = "https://servicios1.afip.gov.ar/wsfev1/service.asmx"
	wsfeURLHomo = "https://wswhomo.afip.gov.ar/wsfev1/service.asmx"

	padronURLProd = "https://aws.afip.gov.ar/sr-padron/webservices/personaServiceA5"
	padronURLHomo = "https://awshomo.afip.gov.ar/sr-padron/webservices/personaServiceA5"
)

// WSAAEndpoint devuelve la URL de WSAA para el entorno.
func WSAAEndpoint(env string) string {
	if env == EnvProduction {
		return wsaaURLProd
	}
	return wsaaURLHomo
}

// WSFEEndpoint devuelve la URL de WSFEv1 para el entorno.
func WSFEEndpoint(env string) string {
	if env == EnvProduction {
		return wsfeURLProd
	}
	return wsfeURLHomo
}

// PadronEndpoint devuelve la URL del padrón A5 para el entorno.
func PadronEndpoint(env string) string {
	if env == EnvProduction {
		return padronURLProd
	}
	return padronURLHomo
}
