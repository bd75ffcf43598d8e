package eventlog

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	gpb "github.com/GreptimeTeam/greptime-proto/go/greptime/v1"
	greptime "github.com/GreptimeTeam/greptimedb-ingester-go"
	"github.com/GreptimeTeam/greptimedb-ingester-go/table"
	"github.com/GreptimeTeam/greptimedb-ingester-go/table/types"
)

// Default GreptimeDB tables for events and node placements.
const (
	DefaultGreptimeTable          = "lora_d2d_events"
	DefaultGreptimePlacementTable = "lora_d2d_placements"
)

type greptimeClient interface {
	Write(ctx context.Context, tables ...*table.Table) (*gpb.GreptimeResponse, error)
}

// GreptimeDBWriter writes records to GreptimeDB via the ingester client.
// Timestamps are the campaign start plus the simulated time of each record,
// at nanosecond precision. Sender, receiver and packet id are tags so that
// outcomes of one broadcast at different receivers keep distinct keys.
// Absent sender or receiver ids are stored as -1.
type GreptimeDBWriter struct {
	client         greptimeClient
	table          string
	placementTable string
	start          time.Time
	logger         *slog.Logger
}

// NewGreptimeDBWriter connects to the GreptimeDB gRPC endpoint at host.
func NewGreptimeDBWriter(host, database string, start time.Time, logger *slog.Logger) (*GreptimeDBWriter, error) {
	cfg := greptime.NewConfig(host).WithDatabase(database)
	client, err := greptime.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("greptimedb client: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &GreptimeDBWriter{
		client:         client,
		table:          DefaultGreptimeTable,
		placementTable: DefaultGreptimePlacementTable,
		start:          start,
		logger:         logger,
	}, nil
}

// Write inserts a single record.
func (w *GreptimeDBWriter) Write(r Record) error {
	return w.WriteBatch([]Record{r})
}

// WriteBatch inserts multiple records in one request.
func (w *GreptimeDBWriter) WriteBatch(rows []Record) error {
	if len(rows) == 0 {
		return nil
	}
	tbl, err := w.buildTable(rows)
	if err != nil {
		return err
	}
	if _, err := w.client.Write(context.Background(), tbl); err != nil {
		w.logger.Error("greptimedb write failed", "table", w.table, "rows", len(rows), "err", err)
		return err
	}
	w.logger.Debug("greptimedb write", "table", w.table, "rows", len(rows))
	return nil
}

func (w *GreptimeDBWriter) buildTable(rows []Record) (*table.Table, error) {
	tbl, err := table.New(w.table)
	if err != nil {
		return nil, err
	}
	columns := []struct {
		name string
		tag  bool
		typ  types.ColumnType
	}{
		{"campaign_id", true, types.STRING},
		{"run", true, types.INT64},
		{"kind", true, types.STRING},
		{"sender", true, types.INT64},
		{"receiver", true, types.INT64},
		{"packet_id", true, types.UINT64},
		{"size", false, types.INT64},
		{"success", false, types.BOOLEAN},
		{"seed", false, types.INT64},
	}
	for _, c := range columns {
		if c.tag {
			err = tbl.AddTagColumn(c.name, c.typ)
		} else {
			err = tbl.AddFieldColumn(c.name, c.typ)
		}
		if err != nil {
			return nil, err
		}
	}
	if err := tbl.AddTimestampColumn("ts", types.TIMESTAMP_NANOSECOND); err != nil {
		return nil, err
	}

	for _, r := range rows {
		sender, receiver := int64(-1), int64(-1)
		if r.Sender != nil {
			sender = int64(*r.Sender)
		}
		if r.Receiver != nil {
			receiver = int64(*r.Receiver)
		}
		success := r.Success != nil && *r.Success
		err := tbl.AddRow(
			r.CampaignID, int64(r.Run), string(r.Kind),
			sender, receiver, r.PacketID, int64(r.Size), success, r.Seed,
			w.start.Add(r.Time),
		)
		if err != nil {
			return nil, err
		}
	}
	return tbl, nil
}

// WritePlacement inserts a node position, stamped with the campaign start.
func (w *GreptimeDBWriter) WritePlacement(p Placement) error {
	name := w.placementTable
	if name == "" {
		name = DefaultGreptimePlacementTable
	}
	tbl, err := table.New(name)
	if err != nil {
		return err
	}
	for _, tag := range []string{"campaign_id", "run", "node"} {
		typ := types.INT64
		if tag == "campaign_id" {
			typ = types.STRING
		}
		if err := tbl.AddTagColumn(tag, typ); err != nil {
			return err
		}
	}
	for _, field := range []struct {
		name string
		typ  types.ColumnType
	}{{"seed", types.INT64}, {"x", types.FLOAT64}, {"y", types.FLOAT64}} {
		if err := tbl.AddFieldColumn(field.name, field.typ); err != nil {
			return err
		}
	}
	if err := tbl.AddTimestampColumn("ts", types.TIMESTAMP_NANOSECOND); err != nil {
		return err
	}
	if err := tbl.AddRow(p.CampaignID, int64(p.Run), int64(p.Node), p.Seed, p.X, p.Y, w.start); err != nil {
		return err
	}
	if _, err := w.client.Write(context.Background(), tbl); err != nil {
		w.logger.Error("greptimedb write failed", "table", name, "node", p.Node, "err", err)
		return err
	}
	return nil
}
