// Package cleansing describes the contract of the external file-cleansing
// engine. Nothing in this module implements or calls Engine; the consumer is
// the upload front-end, which authenticates callers through the auth service
// and lives outside this module.
package cleansing

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/go-playground/validator/v10"
)

type Format string

const (
	FormatCSV   Format = "csv"
	FormatJSON  Format = "json"
	FormatExcel Format = "excel"
)

const DefaultChunkSize = 10000

// Options is the configuration bag passed with every file.
type Options struct {
	Delimiter        string   `json:"delimiter" validate:"required,len=1"`
	NormalizeHeaders bool     `json:"normalize_headers"`
	DropEmptyRows    bool     `json:"drop_empty_rows"`
	MapCRM           bool     `json:"apply_crm_mappings"`
	FileType         string   `json:"file_type,omitempty" validate:"omitempty,oneof=csv tsv txt xlsx xls json"`
	Sheet            string   `json:"sheet_name,omitempty"`
	ChunkSize        int      `json:"chunk_size" validate:"gt=0"`
	ExportFormats    []Format `json:"export_formats" validate:"required,min=1,dive,oneof=csv json excel"`
}

func DefaultOptions() Options {
	return Options{
		Delimiter:        ",",
		NormalizeHeaders: true,
		DropEmptyRows:    true,
		MapCRM:           true,
		ChunkSize:        DefaultChunkSize,
		ExportFormats:    []Format{FormatCSV, FormatJSON, FormatExcel},
	}
}

var validate = validator.New()

// Validate returns a *common.ValidationError naming the first bad field.
func (o Options) Validate() error {
	err := validate.Struct(o)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return common.NewValidationError("invalid cleansing option: " + strings.ToLower(verrs[0].StructField()))
	}
	return err
}

// Wants reports whether f is among the requested export formats.
func (o Options) Wants(f Format) bool {
	for _, x := range o.ExportFormats {
		if x == f {
			return true
		}
	}
	return false
}

type Report struct {
	RowsIn                int               `json:"rows_in"`
	RowsOut               int               `json:"rows_out"`
	ColumnsIn             int               `json:"columns_in"`
	ColumnsOut            int               `json:"columns_out"`
	HeaderMap             map[string]string `json:"header_map"`
	Fixes                 []string          `json:"fixes"`
	StartedAt             time.Time         `json:"started_at"`
	FinishedAt            time.Time         `json:"finished_at"`
	FileType              string            `json:"file_type"`
	CRMDetected           string            `json:"crm_detected,omitempty"`
	FieldMappings         map[string]string `json:"field_mappings"`
	DuplicatesRemoved     int               `json:"duplicates_removed"`
	IrrelevantRowsRemoved int               `json:"irrelevant_rows_removed"`
}

// Artifact is one produced output. Column is empty for full datasets.
type Artifact struct {
	Name   string `json:"name"`
	Column string `json:"column,omitempty"`
	Format Format `json:"format"`
	Data   []byte `json:"data"`
}

type Result struct {
	Artifacts []Artifact `json:"artifacts"`
	Report    Report     `json:"report"`
}

// ColumnArtifacts returns the per-column extracts grouped by column name.
func (r *Result) ColumnArtifacts() map[string][]Artifact {
	out := make(map[string][]Artifact)
	for _, a := range r.Artifacts {
		if a.Column != "" {
			out[a.Column] = append(out[a.Column], a)
		}
	}
	return out
}

type Engine interface {
	Clean(ctx context.Context, data []byte, filename string, opts Options) (*Result, error)
}
