package store

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/tyler180/boxscore-stats/internal/stats"
)

type DynamoDBAPI interface {
	BatchWriteItem(ctx context.Context, params *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error)
}

// StatsTable mirrors a season's standings and player totals into DynamoDB.
// PK=Season (S), SK=TEAM#<team> or PLAYER#<player>#<team> (S).
type StatsTable struct {
	Client DynamoDBAPI
	Table  string
	Now    func() time.Time
}

const maxBatch = 25

func (s *StatsTable) now() string {
	t := time.Now()
	if s.Now != nil {
		t = s.Now()
	}
	return strconv.FormatInt(t.Unix(), 10)
}

func num(f float64, prec int) types.AttributeValue {
	return &types.AttributeValueMemberN{Value: strconv.FormatFloat(f, 'f', prec, 64)}
}

func count(n int) types.AttributeValue {
	return &types.AttributeValueMemberN{Value: strconv.Itoa(n)}
}

func str(s string) types.AttributeValue {
	return &types.AttributeValueMemberS{Value: s}
}

func (s *StatsTable) PutStandings(ctx context.Context, season string, rows []stats.StandingsRow) (int, error) {
	now := s.now()
	items := make([]map[string]types.AttributeValue, 0, len(rows))
	for _, r := range rows {
		if r.Team == "" {
			continue
		}
		items = append(items, map[string]types.AttributeValue{
			"Season":    str(season),
			"SK":        str("TEAM#" + r.Team),
			"Kind":      str("standings"),
			"Team":      str(r.Team),
			"GP":        count(r.GP),
			"W":         count(r.W),
			"L":         count(r.L),
			"T":         count(r.T),
			"PF":        count(r.PF),
			"PA":        count(r.PA),
			"Pct":       num(r.Pct, 3),
			"Diff":      count(r.Diff),
			"UpdatedAt": &types.AttributeValueMemberN{Value: now},
		})
	}
	if err := s.writeItems(ctx, items); err != nil {
		return 0, fmt.Errorf("batch write standings: %w", err)
	}
	return len(items), nil
}

func (s *StatsTable) PutPlayerTotals(ctx context.Context, season string, totals []stats.PlayerTotals) (int, error) {
	now := s.now()
	items := make([]map[string]types.AttributeValue, 0, len(totals))
	for _, p := range totals {
		if p.Player == "" {
			continue
		}
		item := map[string]types.AttributeValue{
			"Season":    str(season),
			"SK":        str("PLAYER#" + p.Player + "#" + p.Team),
			"Kind":      str("player"),
			"Player":    str(p.Player),
			"Team":      str(p.Team),
			"G":         count(p.G),
			"PassAtt":   num(p.Passing.Att, 0),
			"PassYds":   num(p.Passing.Yds, 0),
			"PassTD":    num(p.Passing.TD, 0),
			"PassInt":   num(p.Passing.Int, 0),
			"RushAtt":   num(p.Rushing.Att, 0),
			"RushYds":   num(p.Rushing.Yds, 0),
			"RushTD":    num(p.Rushing.TD, 0),
			"Rec":       num(p.Receiving.Rec, 0),
			"RecYds":    num(p.Receiving.Yds, 0),
			"RecTD":     num(p.Receiving.TD, 0),
			"Tackles":   num(p.Defense.Tackles, 1),
			"Sacks":     num(p.Defense.Sacks, 1),
			"CmpPct":    num(p.CmpPct, 3),
			"YPA":       num(p.YPA, 2),
			"UpdatedAt": &types.AttributeValueMemberN{Value: now},
		}
		if p.Position != "" {
			item["Pos"] = str(p.Position)
		}
		items = append(items, item)
	}
	if err := s.writeItems(ctx, items); err != nil {
		return 0, fmt.Errorf("batch write player totals: %w", err)
	}
	return len(items), nil
}

func (s *StatsTable) writeItems(ctx context.Context, items []map[string]types.AttributeValue) error {
	for i := 0; i < len(items); i += maxBatch {
		end := i + maxBatch
		if end > len(items) {
			end = len(items)
		}
		reqs := make([]types.WriteRequest, 0, end-i)
		for _, item := range items[i:end] {
			reqs = append(reqs, types.WriteRequest{PutRequest: &types.PutRequest{Item: item}})
		}
		if err := batchWrite(ctx, s.Client, s.Table, reqs); err != nil {
			return err
		}
	}
	return nil
}

// batchWrite resubmits UnprocessedItems until DynamoDB accepts the whole batch.
// A failed call is returned as is.
func batchWrite(ctx context.Context, ddb DynamoDBAPI, table string, reqs []types.WriteRequest) error {
	input := &dynamodb.BatchWriteItemInput{
		RequestItems: map[string][]types.WriteRequest{table: reqs},
	}
	const maxAttempts = 6
	backoff := 120 * time.Millisecond

	for attempt := 0; attempt < maxAttempts; attempt++ {
		out, err := ddb.BatchWriteItem(ctx, input)
		if err != nil {
			return err
		}
		if len(out.UnprocessedItems) == 0 {
			return nil
		}
		input.RequestItems = out.UnprocessedItems
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		if backoff < 2*time.Second {
			backoff += 120 * time.Millisecond
		}
	}
	return fmt.Errorf("unprocessed items remained after %d attempts for table %s", maxAttempts, table)
}
