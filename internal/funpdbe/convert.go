package funpdbe

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
)

// ErrEmptyPrediction signals that p2rank found no pockets for an entry. It is
// an expected outcome, distinguished from conversion failures.
var ErrEmptyPrediction = errors.New("empty prediction")

// Configuration is the provenance snapshot recorded in every converted entry.
type Configuration struct {
	DataResource    string
	ResourceVersion string
	// ReleaseDate of the conversion, dd/mm/yyyy.
	ReleaseDate string
	// URLTemplate with a {pdb_id} placeholder pointing back at the
	// prediction for this entry.
	URLTemplate string
	// P2RankVersion of the release that produced the prediction.
	P2RankVersion string
}

// Entry is the FunPDBe document shape.
type Entry struct {
	DataResource         string         `json:"data_resource"`
	ResourceVersion      string         `json:"resource_version"`
	SoftwareVersion      string         `json:"software_version,omitempty"`
	ResourceEntryURL     string         `json:"resource_entry_url"`
	ReleaseDate          string         `json:"release_date"`
	PDBID                string         `json:"pdb_id"`
	Chains               []Chain        `json:"chains"`
	Sites                []Site         `json:"sites"`
	EvidenceCodeOntology []EvidenceCode `json:"evidence_code_ontology"`
}

// Chain groups the annotated residues of one chain.
type Chain struct {
	ChainLabel string    `json:"chain_label"`
	Residues   []Residue `json:"residues"`
}

// Residue carries the per-residue pocket annotations.
type Residue struct {
	PDBResLabel string     `json:"pdb_res_label"`
	AAType      string     `json:"aa_type"`
	SiteData    []SiteData `json:"site_data"`
}

// SiteData links a residue to a predicted site with its score.
type SiteData struct {
	SiteIDRef                int     `json:"site_id_ref"`
	RawScore                 float64 `json:"raw_score"`
	ConfidenceClassification string  `json:"confidence_classification"`
}

// Site is one predicted binding pocket.
type Site struct {
	SiteID int    `json:"site_id"`
	Label  string `json:"label"`
}

// EvidenceCode is an ECO ontology reference.
type EvidenceCode struct {
	ECOTerm string `json:"eco_term"`
	ECOCode string `json:"eco_code"`
}

type pocket struct {
	name string
	rank int
}

type residueRow struct {
	chain       string
	label       string
	name        string
	probability float64
	pocket      int
}

// Convert reads the p2rank predictions and residues tables and writes a
// FunPDBe entry to outputPath. Returns ErrEmptyPrediction when the prediction
// carries no pocket with residue-level data; nothing is written in that case.
func Convert(cfg Configuration, code, predictionsPath, residuesPath, outputPath string) error {
	pockets, err := readPredictions(predictionsPath)
	if err != nil {
		return err
	}
	residues, err := readResidues(residuesPath)
	if err != nil {
		return err
	}

	entry, err := buildEntry(cfg, code, pockets, residues)
	if err != nil {
		return err
	}

	raw, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return fmt.Errorf("encode funpdbe entry: %w", err)
	}
	if err := os.WriteFile(outputPath, append(raw, '\n'), 0o644); err != nil {
		return fmt.Errorf("write funpdbe entry: %w", err)
	}
	return nil
}

func buildEntry(cfg Configuration, code string, pockets []pocket, residues []residueRow) (*Entry, error) {
	known := make(map[int]struct{}, len(pockets))
	for _, p := range pockets {
		known[p.rank] = struct{}{}
	}

	byChain := map[string][]Residue{}
	var chainOrder []string
	assigned := 0
	for _, row := range residues {
		if row.pocket == 0 {
			continue
		}
		if _, ok := known[row.pocket]; !ok {
			return nil, fmt.Errorf("residue %s %s references unknown pocket %d", row.chain, row.label, row.pocket)
		}
		if _, seen := byChain[row.chain]; !seen {
			chainOrder = append(chainOrder, row.chain)
		}
		byChain[row.chain] = append(byChain[row.chain], Residue{
			PDBResLabel: row.label,
			AAType:      row.name,
			SiteData: []SiteData{{
				SiteIDRef:                row.pocket,
				RawScore:                 row.probability,
				ConfidenceClassification: confidenceClass(row.probability),
			}},
		})
		assigned++
	}

	if len(pockets) == 0 || assigned == 0 {
		return nil, ErrEmptyPrediction
	}

	sort.Strings(chainOrder)
	chains := make([]Chain, 0, len(chainOrder))
	for _, label := range chainOrder {
		chains = append(chains, Chain{ChainLabel: label, Residues: byChain[label]})
	}

	sites := make([]Site, 0, len(pockets))
	for _, p := range pockets {
		sites = append(sites, Site{SiteID: p.rank, Label: p.name})
	}
	sort.Slice(sites, func(i, j int) bool { return sites[i].SiteID < sites[j].SiteID })

	lowered := strings.ToLower(strings.TrimSpace(code))
	return &Entry{
		DataResource:     cfg.DataResource,
		ResourceVersion:  cfg.ResourceVersion,
		SoftwareVersion:  cfg.P2RankVersion,
		ResourceEntryURL: strings.ReplaceAll(cfg.URLTemplate, "{pdb_id}", lowered),
		ReleaseDate:      cfg.ReleaseDate,
		PDBID:            lowered,
		Chains:           chains,
		Sites:            sites,
		EvidenceCodeOntology: []EvidenceCode{{
			ECOTerm: "computational combinatorial evidence used in automatic assertion",
			ECOCode: "ECO:0000246",
		}},
	}, nil
}

func confidenceClass(probability float64) string {
	switch {
	case probability >= 0.75:
		return "high"
	case probability >= 0.5:
		return "medium"
	default:
		return "low"
	}
}

func readPredictions(path string) ([]pocket, error) {
	rows, index, err := readTable(path, "name", "rank")
	if err != nil {
		return nil, fmt.Errorf("predictions table: %w", err)
	}
	pockets := make([]pocket, 0, len(rows))
	for _, row := range rows {
		rank, err := strconv.Atoi(row[index["rank"]])
		if err != nil {
			return nil, fmt.Errorf("predictions table: parse rank %q: %w", row[index["rank"]], err)
		}
		pockets = append(pockets, pocket{name: row[index["name"]], rank: rank})
	}
	return pockets, nil
}

func readResidues(path string) ([]residueRow, error) {
	rows, index, err := readTable(path, "chain", "residue_label", "residue_name", "probability", "pocket")
	if err != nil {
		return nil, fmt.Errorf("residues table: %w", err)
	}
	residues := make([]residueRow, 0, len(rows))
	for _, row := range rows {
		probability, err := strconv.ParseFloat(row[index["probability"]], 64)
		if err != nil {
			return nil, fmt.Errorf("residues table: parse probability %q: %w", row[index["probability"]], err)
		}
		pocketID, err := strconv.Atoi(row[index["pocket"]])
		if err != nil {
			return nil, fmt.Errorf("residues table: parse pocket %q: %w", row[index["pocket"]], err)
		}
		residues = append(residues, residueRow{
			chain:       row[index["chain"]],
			label:       row[index["residue_label"]],
			name:        row[index["residue_name"]],
			probability: probability,
			pocket:      pocketID,
		})
	}
	return residues, nil
}

// readTable parses a p2rank CSV table. p2rank pads cells with spaces, so
// every header and value is trimmed before use.
func readTable(path string, required ...string) ([][]string, map[string]int, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, nil, err
	}
	if len(records) == 0 {
		return nil, nil, errors.New("missing header row")
	}

	index := map[string]int{}
	for i, name := range records[0] {
		index[strings.TrimSpace(name)] = i
	}
	for _, name := range required {
		if _, ok := index[name]; !ok {
			return nil, nil, fmt.Errorf("missing column %q", name)
		}
	}

	rows := records[1:]
	for _, row := range rows {
		if len(row) < len(records[0]) {
			return nil, nil, fmt.Errorf("short row: %v", row)
		}
		for i := range row {
			row[i] = strings.TrimSpace(row[i])
		}
	}
	return rows, index, nil
}
