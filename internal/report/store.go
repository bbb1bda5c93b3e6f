// Package report persists kinetics evaluation runs: a metadata file plus CSV
// tables of per-reaction and per-species rates.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/ischoegl/cantera/internal/kinetics"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID          string    `json:"id"`
	Mechanism   string    `json:"mechanism"`
	Timestamp   time.Time `json:"timestamp"`
	Temperature float64   `json:"temperature"`
	Pressure    float64   `json:"pressure"`
	NReactions  int       `json:"n_reactions"`
	NSpecies    int       `json:"n_species"`
}

// Save evaluates the manager at its current state and writes one run
// directory: metadata.json, reactions.csv and species.csv.
func (s *Store) Save(mechName string, k *kinetics.Kinetics) (string, error) {
	runID := fmt.Sprintf("%s_%d", mechName, time.Now().Unix())
	runDir := filepath.Join(s.baseDir, runID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	phase, err := k.Phase(0)
	if err != nil {
		return "", err
	}
	meta := RunMetadata{
		ID:          runID,
		Mechanism:   mechName,
		Timestamp:   time.Now(),
		Temperature: phase.Temperature(),
		Pressure:    phase.Pressure(),
		NReactions:  k.NReactions(),
		NSpecies:    k.NTotalSpecies(),
	}

	metaFile, err := os.Create(filepath.Join(runDir, "metadata.json"))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()
	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	if err := s.writeReactions(runDir, k); err != nil {
		return "", err
	}
	if err := s.writeSpecies(runDir, k); err != nil {
		return "", err
	}
	return runID, nil
}

func (s *Store) writeReactions(runDir string, k *kinetics.Kinetics) error {
	nr := k.NReactions()
	kf := make([]float64, nr)
	fwd := make([]float64, nr)
	rev := make([]float64, nr)
	net := make([]float64, nr)
	if err := k.GetFwdRateConstants(kf); err != nil {
		return err
	}
	if err := k.GetFwdRatesOfProgress(fwd); err != nil {
		return err
	}
	if err := k.GetRevRatesOfProgress(rev); err != nil {
		return err
	}
	if err := k.GetNetRatesOfProgress(net); err != nil {
		return err
	}

	file, err := os.Create(filepath.Join(runDir, "reactions.csv"))
	if err != nil {
		return err
	}
	defer file.Close()

	w := csv.NewWriter(file)
	defer w.Flush()

	if err := w.Write([]string{"reaction", "equation", "kf", "rop_fwd", "rop_rev", "rop_net"}); err != nil {
		return err
	}
	for i := 0; i < nr; i++ {
		r, err := k.Reaction(i)
		if err != nil {
			return err
		}
		row := []string{
			strconv.Itoa(i),
			r.Equation(),
			strconv.FormatFloat(kf[i], 'e', 6, 64),
			strconv.FormatFloat(fwd[i], 'e', 6, 64),
			strconv.FormatFloat(rev[i], 'e', 6, 64),
			strconv.FormatFloat(net[i], 'e', 6, 64),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) writeSpecies(runDir string, k *kinetics.Kinetics) error {
	kk := k.NTotalSpecies()
	cdot := make([]float64, kk)
	ddot := make([]float64, kk)
	wdot := make([]float64, kk)
	if err := k.GetCreationRates(cdot); err != nil {
		return err
	}
	if err := k.GetDestructionRates(ddot); err != nil {
		return err
	}
	if err := k.GetNetProductionRates(wdot); err != nil {
		return err
	}

	file, err := os.Create(filepath.Join(runDir, "species.csv"))
	if err != nil {
		return err
	}
	defer file.Close()

	w := csv.NewWriter(file)
	defer w.Flush()

	if err := w.Write([]string{"species", "creation", "destruction", "net_production"}); err != nil {
		return err
	}
	for i := 0; i < kk; i++ {
		row := []string{
			k.SpeciesName(i),
			strconv.FormatFloat(cdot[i], 'e', 6, 64),
			strconv.FormatFloat(ddot[i], 'e', 6, 64),
			strconv.FormatFloat(wdot[i], 'e', 6, 64),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.baseDir, entry.Name(), "metadata.json"))
		if err != nil {
			continue
		}
		var meta RunMetadata
		if err := json.Unmarshal(data, &meta); err != nil {
			continue
		}
		runs = append(runs, meta)
	}
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		return nil, err
	}
	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// LoadReactions reads back the per-reaction table of a saved run. It returns
// the equations and the kf, forward, reverse and net columns.
func (s *Store) LoadReactions(runID string) ([]string, [][]float64, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, "reactions.csv"))
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, err
	}
	if len(records) < 2 {
		return []string{}, [][]float64{}, nil
	}

	equations := make([]string, 0, len(records)-1)
	values := make([][]float64, 0, len(records)-1)
	for i := 1; i < len(records); i++ {
		record := records[i]
		if len(record) < 6 {
			continue
		}
		equations = append(equations, record[1])
		row := make([]float64, 0, 4)
		for j := 2; j < 6; j++ {
			v, err := strconv.ParseFloat(record[j], 64)
			if err != nil {
				continue
			}
			row = append(row, v)
		}
		values = append(values, row)
	}
	return equations, values, nil
}
