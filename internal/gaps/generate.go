package gaps

import (
	"errors"
	"fmt"
	"time"

	"sitegate/internal/logging"
	"sitegate/internal/mapping"
	"sitegate/internal/report"
)

var log = logging.For("gaps")

// ErrNoReports is returned when neither a native nor a matrix report exists.
var ErrNoReports = errors.New("no agent reports found")

type Result struct {
	Path    string   `json:"path"`
	Missing []string `json:"missing"`
	Sources Sources  `json:"-"`
}

// Generate builds the checklist from the newest reports in reportDir and
// writes it to outDir as native_id_gap_<ts>.md. A missing mapping file only
// loses the type and description columns.
func Generate(reportDir, outDir, mappingFile string, now time.Time) (Result, error) {
	var (
		src            Sources
		native, matrix *report.RunReport
	)
	load := func(prefix string, path *string) (*report.RunReport, error) {
		p, ok, err := report.Latest(reportDir, prefix)
		if err != nil || !ok {
			return nil, err
		}
		r, err := report.Load(p)
		if err != nil {
			return nil, err
		}
		*path = p
		return &r, nil
	}

	native, err := load(report.PrefixNative, &src.Native)
	if err != nil {
		return Result{}, err
	}
	matrix, err = load(report.PrefixMatrix, &src.Matrix)
	if err != nil {
		return Result{}, err
	}
	if native == nil && matrix == nil {
		return Result{}, ErrNoReports
	}

	table := mapping.Table{}
	if text, err := mapping.ReadFile(mappingFile); err != nil {
		log.WithError(err).Warn("mapping unavailable; ids will be listed without descriptions")
	} else {
		table = mapping.ParseTable(text)
	}

	ids := Collect(native, matrix)
	path, err := report.WriteArtifact(outDir, report.PrefixGap, "md", []byte(Render(src, ids, table)), now)
	if err != nil {
		return Result{}, fmt.Errorf("write gap checklist: %w", err)
	}
	if ids == nil {
		ids = []string{}
	}
	return Result{Path: path, Missing: ids, Sources: src}, nil
}
