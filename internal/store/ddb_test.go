package store

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	ddb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/tyler180/boxscore-stats/internal/stats"
)

// fake client implementing DynamoDBAPI
type fakeDDB struct {
	calls int
	items []map[string]types.AttributeValue
	// first attempt of every batch comes back unprocessed
	failFirst bool
	err       error
}

func (f *fakeDDB) BatchWriteItem(ctx context.Context, in *ddb.BatchWriteItemInput, _ ...func(*ddb.Options)) (*ddb.BatchWriteItemOutput, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if f.failFirst && f.calls%2 == 1 {
		return &ddb.BatchWriteItemOutput{UnprocessedItems: in.RequestItems}, nil
	}
	for _, reqs := range in.RequestItems {
		for _, r := range reqs {
			f.items = append(f.items, r.PutRequest.Item)
		}
	}
	return &ddb.BatchWriteItemOutput{}, nil
}

func TestPutPlayerTotals_BatchingAndResubmit(t *testing.T) {
	// 30 players -> 25 + 5
	var totals []stats.PlayerTotals
	for i := 0; i < 30; i++ {
		totals = append(totals, stats.PlayerTotals{Player: fmt.Sprintf("P%02d", i), Team: "ATL", Season: "2025", G: 1})
	}
	totals = append(totals, stats.PlayerTotals{Team: "ATL"})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	fc := &fakeDDB{failFirst: true}
	tbl := &StatsTable{Client: fc, Table: "tbl", Now: func() time.Time { return time.Unix(1700000000, 0) }}
	n, err := tbl.PutPlayerTotals(ctx, "2025", totals)
	if err != nil {
		t.Fatalf("PutPlayerTotals error: %v", err)
	}
	if n != 30 {
		t.Fatalf("expected 30 items (blank player skipped), got %d", n)
	}
	// Each batch is attempted twice, and there are 2 batches.
	if fc.calls != 4 {
		t.Fatalf("expected 4 BatchWriteItem calls, got %d", fc.calls)
	}
	if len(fc.items) != 30 {
		t.Fatalf("expected 30 stored items, got %d", len(fc.items))
	}
	sk := fc.items[0]["SK"].(*types.AttributeValueMemberS).Value
	if sk != "PLAYER#P00#ATL" {
		t.Fatalf("unexpected sort key %q", sk)
	}
	if ts := fc.items[0]["UpdatedAt"].(*types.AttributeValueMemberN).Value; ts != "1700000000" {
		t.Fatalf("unexpected UpdatedAt %q", ts)
	}
}

func TestPutStandings_Item(t *testing.T) {
	fc := &fakeDDB{}
	tbl := &StatsTable{Client: fc, Table: "tbl"}
	n, err := tbl.PutStandings(context.Background(), "2025", []stats.StandingsRow{
		{Team: "Alpha", GP: 4, W: 3, L: 1, PF: 100, PA: 80, Pct: 0.75, Diff: 20},
	})
	if err != nil || n != 1 {
		t.Fatalf("PutStandings = %d, %v", n, err)
	}
	item := fc.items[0]
	if got := item["SK"].(*types.AttributeValueMemberS).Value; got != "TEAM#Alpha" {
		t.Fatalf("SK = %q", got)
	}
	if got := item["Pct"].(*types.AttributeValueMemberN).Value; got != "0.750" {
		t.Fatalf("Pct = %q", got)
	}
}

func TestBatchWrite_ErrorAndCancel(t *testing.T) {
	boom := errors.New("throttled")
	tbl := &StatsTable{Client: &fakeDDB{err: boom}, Table: "tbl"}
	_, err := tbl.PutStandings(context.Background(), "2025", []stats.StandingsRow{{Team: "Alpha"}})
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped client error, got %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	stuck := &fakeDDB{failFirst: true}
	err = batchWrite(ctx, stuck, "tbl", []types.WriteRequest{{PutRequest: &types.PutRequest{}}})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
