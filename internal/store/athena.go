package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/athena"
	"github.com/aws/aws-sdk-go-v2/service/athena/types"
)

type AthenaAPI interface {
	StartQueryExecution(ctx context.Context, params *athena.StartQueryExecutionInput, optFns ...func(*athena.Options)) (*athena.StartQueryExecutionOutput, error)
	GetQueryExecution(ctx context.Context, params *athena.GetQueryExecutionInput, optFns ...func(*athena.Options)) (*athena.GetQueryExecutionOutput, error)
}

// Catalog registers exported Parquet data as Athena tables.
type Catalog struct {
	Client    AthenaAPI
	Workgroup string
	Database  string
	OutputS3  string // s3://bucket/prefix/; empty uses the workgroup default
	Poll      time.Duration
	Logger    *slog.Logger
}

func (c *Catalog) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}

// ExecAndWait starts a query and polls until it reaches a terminal state.
func (c *Catalog) ExecAndWait(ctx context.Context, sql string) (*types.QueryExecution, error) {
	in := &athena.StartQueryExecutionInput{
		QueryString: aws.String(sql),
		QueryExecutionContext: &types.QueryExecutionContext{
			Database: aws.String(c.Database),
		},
	}
	if c.Workgroup != "" {
		in.WorkGroup = aws.String(c.Workgroup)
	}
	if c.OutputS3 != "" {
		in.ResultConfiguration = &types.ResultConfiguration{OutputLocation: aws.String(c.OutputS3)}
	}
	startOut, err := c.Client.StartQueryExecution(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("start query: %w", err)
	}
	qid := aws.ToString(startOut.QueryExecutionId)
	c.logger().Debug("athena query started", "qid", qid)

	poll := c.Poll
	if poll <= 0 {
		poll = time.Second
	}
	tick := time.NewTicker(poll)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-tick.C:
			ge, err := c.Client.GetQueryExecution(ctx, &athena.GetQueryExecutionInput{
				QueryExecutionId: aws.String(qid),
			})
			if err != nil {
				return nil, fmt.Errorf("get query execution: %w", err)
			}
			qe := ge.QueryExecution
			if qe == nil || qe.Status == nil {
				continue
			}
			switch qe.Status.State {
			case types.QueryExecutionStateSucceeded:
				var scannedMB float64
				if qe.Statistics != nil && qe.Statistics.DataScannedInBytes != nil {
					scannedMB = float64(*qe.Statistics.DataScannedInBytes) / 1024.0 / 1024.0
				}
				c.logger().Info("athena query succeeded", "qid", qid, "scanned_mb", fmt.Sprintf("%.3f", scannedMB))
				return qe, nil
			case types.QueryExecutionStateFailed:
				return nil, errors.New("athena failed: " + aws.ToString(qe.Status.StateChangeReason))
			case types.QueryExecutionStateCancelled:
				return nil, errors.New("athena cancelled")
			}
		}
	}
}

// RegisterPlayerTotals creates the partitioned player totals table over
// location (an s3:// prefix holding season=<s>/ directories) and loads its
// partitions.
func (c *Catalog) RegisterPlayerTotals(ctx context.Context, table, location string) error {
	if !strings.HasSuffix(location, "/") {
		location += "/"
	}
	if _, err := c.ExecAndWait(ctx, PlayerTotalsDDL(table, location)); err != nil {
		return fmt.Errorf("create %s: %w", table, err)
	}
	if _, err := c.ExecAndWait(ctx, "MSCK REPAIR TABLE "+table); err != nil {
		return fmt.Errorf("repair %s: %w", table, err)
	}
	return nil
}

// PlayerTotalsDDL renders the CREATE EXTERNAL TABLE statement for the
// Parquet export. Season is the partition column.
func PlayerTotalsDDL(table, location string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "CREATE EXTERNAL TABLE IF NOT EXISTS %s (\n", table)
	for i, col := range playerTotalsColumns {
		sep := ","
		if i == len(playerTotalsColumns)-1 {
			sep = ""
		}
		fmt.Fprintf(&b, "  %s %s%s\n", col.name, col.hiveType, sep)
	}
	b.WriteString(")\nPARTITIONED BY (season string)\nSTORED AS PARQUET\n")
	fmt.Fprintf(&b, "LOCATION '%s'\n", location)
	b.WriteString("TBLPROPERTIES ('parquet.compression'='SNAPPY')")
	return b.String()
}
