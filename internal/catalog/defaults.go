package catalog

const site = "https://www.academianacionaldeartes.cl"

// DefaultTable is the academy's course catalog. Entries are checked in order.
func DefaultTable() Table {
	return Table{
		Entries: []Entry{
			{
				Topic:    "canto",
				Keywords: []string{"canto"},
				Locators: []string{
					site + "/clases-de-canto",
					site + "/curso-de-formacion-musical",
				},
			},
			{
				Topic:    "teatro",
				Keywords: []string{"teatro"},
				Locators: []string{
					site + "/talleres-de-teatro",
					site + "/taller-de-iniciacion-en-teatro",
					site + "/preuniversitario-teatral",
				},
			},
			{
				Topic:    "piano",
				Keywords: []string{"piano"},
				Locators: []string{site + "/clases-de-piano"},
			},
			{
				Topic:    "guitarra",
				Keywords: []string{"guitarra"},
				Locators: []string{site + "/clases-de-guitarra"},
			},
			{
				Topic:    "bajo",
				Keywords: []string{"bajo"},
				Locators: []string{site + "/clases-de-bajo"},
			},
			{
				Topic:    "ukelele",
				Keywords: []string{"ukelele", "ukulele"},
				Locators: []string{site + "/clases-de-ukelele"},
			},
			{
				Topic:    "clase-de-prueba",
				Keywords: []string{"clase de prueba", "clase gratis", "clase gratuita"},
				Locators: []string{site + "/clase-de-prueba"},
			},
		},
		Default: []string{
			site + "/cursos-de-musica",
			site,
			site + "/clase-de-prueba",
		},
	}
}
