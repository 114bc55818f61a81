package export

import (
	"context"
	"fmt"
	"math"
	"strings"

	"cloud.google.com/go/bigquery"
	"github.com/carbocation/exprharmony/dataset"
	"github.com/carbocation/pfx"
	log "github.com/sirupsen/logrus"
	"google.golang.org/api/iterator"
)

const DefaultBatchSize = 10000

// ExpressionRow is one value of a dataset in long format.
type ExpressionRow struct {
	Dataset string               `bigquery:"dataset"`
	Sample  string               `bigquery:"sample"`
	Gene    string               `bigquery:"gene"`
	Value   bigquery.NullFloat64 `bigquery:"value"`
}

// Save implements bigquery.ValueSaver. The insert ID lets BigQuery drop rows
// that are retried.
func (r ExpressionRow) Save() (map[string]bigquery.Value, string, error) {
	return map[string]bigquery.Value{
		"dataset": r.Dataset,
		"sample":  r.Sample,
		"gene":    r.Gene,
		"value":   r.Value,
	}, fmt.Sprintf("%s|%s|%s", r.Dataset, r.Sample, r.Gene), nil
}

// Rows flattens ds into long format under the given dataset name. NaN values
// become NULL.
func Rows(name string, ds *dataset.Dataset) []ExpressionRow {
	out := make([]ExpressionRow, 0, len(ds.Samples)*len(ds.Genes))
	for i, sample := range ds.Samples {
		for j, gene := range ds.Genes {
			v := ds.Data.At(i, j)
			out = append(out, ExpressionRow{
				Dataset: name,
				Sample:  sample,
				Gene:    gene,
				Value:   bigquery.NullFloat64{Float64: v, Valid: !math.IsNaN(v) && !math.IsInf(v, 0)},
			})
		}
	}
	return out
}

// BigQuery uploads datasets into one table, Project.Dataset.Table.
type BigQuery struct {
	Client    *bigquery.Client
	Project   string
	Dataset   string
	Table     string
	BatchSize int
}

func NewBigQuery(ctx context.Context, project, bqDataset, table string) (*BigQuery, error) {
	client, err := bigquery.NewClient(ctx, project)
	if err != nil {
		return nil, fmt.Errorf("connecting to BigQuery: %w", err)
	}

	return &BigQuery{
		Client:    client,
		Project:   project,
		Dataset:   bqDataset,
		Table:     table,
		BatchSize: DefaultBatchSize,
	}, nil
}

func (b *BigQuery) Close() error {
	return b.Client.Close()
}

// ExistingDatasets lists the dataset names already present in the table. A
// table that does not exist yet holds no datasets.
func (b *BigQuery) ExistingDatasets(ctx context.Context) (map[string]struct{}, error) {
	known := make(map[string]struct{})

	query := b.Client.Query(fmt.Sprintf("SELECT DISTINCT dataset FROM `%s.%s.%s`", b.Project, b.Dataset, b.Table))
	itr, err := query.Read(ctx)
	if err != nil && strings.Contains(err.Error(), "Error 404") {
		// Not an error; the table just doesn't exist yet
		return known, nil
	} else if err != nil {
		return nil, pfx.Err(err)
	}

	for {
		var values struct {
			Dataset string `bigquery:"dataset"`
		}
		err := itr.Next(&values)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, pfx.Err(err)
		}
		known[values.Dataset] = struct{}{}
	}

	return known, nil
}

// Upload inserts ds under name unless the table already holds a dataset of
// that name. It reports whether rows were inserted.
func (b *BigQuery) Upload(ctx context.Context, name string, ds *dataset.Dataset) (bool, error) {
	known, err := b.ExistingDatasets(ctx)
	if err != nil {
		return false, err
	}
	if _, exists := known[name]; exists {
		log.WithField("dataset", name).Infoln("Dataset already in BigQuery, skipping")
		return false, nil
	}

	batchSize := b.BatchSize
	if batchSize < 1 {
		batchSize = DefaultBatchSize
	}

	inserter := b.Client.Dataset(b.Dataset).Table(b.Table).Inserter()
	rows := Rows(name, ds)
	for start := 0; start < len(rows); start += batchSize {
		end := start + batchSize
		if end > len(rows) {
			end = len(rows)
		}
		if err := inserter.Put(ctx, rows[start:end]); err != nil {
			return false, pfx.Err(fmt.Errorf("inserting rows %d-%d of %s: %w", start, end, name, err))
		}
		log.WithFields(log.Fields{"dataset": name, "rows": end}).Debugln("Inserted batch")
	}

	log.WithFields(log.Fields{"dataset": name, "rows": len(rows)}).Infoln("Uploaded to BigQuery")

	return true, nil
}
