// Package e2e drives the full ingestion and query pipeline against fake external services.
package e2e

import (
	"fmt"
	"strings"
)

// CatalogueDocument is one source file of the test corpus.
type CatalogueDocument struct {
	FileName string
	Text     string
}

// QueryTestCase asks for the exact text of a passage, so the passage must come back
// with maximal similarity.
type QueryTestCase struct {
	Query          string
	ExpectedSource string
	Description    string
}

// Corpus holds documents and query test cases.
type Corpus struct {
	Documents []CatalogueDocument
	TestCases []QueryTestCase
}

var fasteners = []struct {
	family string
	use    string
}{
	{"wood screw", "softwood framing, cabinets and furniture joints"},
	{"sheet metal screw", "HVAC ducting, thin steel panels and aluminium trim"},
	{"drywall screw", "gypsum board onto timber or light-gauge steel studs"},
	{"deck screw", "pressure-treated decking exposed to weather"},
	{"machine screw", "tapped holes and nut assemblies in equipment"},
	{"masonry screw", "concrete, brick and block anchoring without plugs"},
	{"lag screw", "heavy timber connections and ledger boards"},
	{"self-drilling screw", "steel-to-steel fastening without a pilot hole"},
}

var gauges = []string{"#6", "#8", "#10", "#12"}

// BuildCorpus returns one single-passage document per fastener family and gauge,
// each with a unique sentence, plus a query per document.
func BuildCorpus() *Corpus {
	c := &Corpus{}
	for i, f := range fasteners {
		for j, g := range gauges {
			name := fmt.Sprintf("%s-%s.txt", strings.ReplaceAll(f.family, " ", "-"), strings.TrimPrefix(g, "#"))
			text := fmt.Sprintf("Catalogue item %d-%d: %s %s recommended for %s.", i, j, g, f.family, f.use)
			c.Documents = append(c.Documents, CatalogueDocument{FileName: name, Text: text})
			c.TestCases = append(c.TestCases, QueryTestCase{
				Query:          text,
				ExpectedSource: name,
				Description:    g + " " + f.family,
			})
		}
	}
	return c
}
