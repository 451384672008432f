package extentstore

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"

	"github.com/mohammed-shakir/osm-ingest/internal/cache/keys"
	"github.com/mohammed-shakir/osm-ingest/internal/cache/redisstore"
	"github.com/mohammed-shakir/osm-ingest/internal/extent"
	"github.com/mohammed-shakir/osm-ingest/internal/mapper"
)

func newMini(t *testing.T) (*redisstore.Client, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	t.Cleanup(cancel)

	cli, err := redisstore.New(ctx, mr.Addr())
	if err != nil {
		t.Fatalf("redisstore.New: %v", err)
	}
	t.Cleanup(func() { _ = cli.Close() })

	return cli, mr
}

func sample() extent.Summary {
	return extent.Summary{
		Dataset:    "sweden",
		RunID:      "run-1",
		Nodes:      3,
		Ways:       1,
		Bounds:     &extent.Box{MinLon: 11, MinLat: 55, MaxLon: 24, MaxLat: 69},
		Valid:      true,
		Coverage:   &mapper.Coverage{Res: 2, Cells: []string{"821f87fffffffff"}},
		FinishedAt: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestRedisExtentStore_SaveLatestRun(t *testing.T) {
	cli, mr := newMini(t)
	st := NewRedisStore(cli, time.Hour, time.Second)
	ctx := context.Background()

	if err := st.Save(ctx, sample()); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, found, err := st.Latest(ctx, "sweden")
	if err != nil || !found {
		t.Fatalf("Latest found=%v err=%v", found, err)
	}
	if got.Nodes != 3 || got.Bounds == nil || got.Bounds.MaxLat != 69 || got.Coverage.Res != 2 {
		t.Fatalf("Latest=%+v", got)
	}
	if !got.FinishedAt.Equal(sample().FinishedAt) {
		t.Fatalf("finished_at=%v", got.FinishedAt)
	}

	run, found, err := st.Run(ctx, "sweden", "run-1")
	if err != nil || !found || run.RunID != "run-1" {
		t.Fatalf("Run=%+v found=%v err=%v", run, found, err)
	}

	if ttl := mr.TTL(keys.ExtentKey("sweden")); ttl != time.Hour {
		t.Fatalf("ttl=%v", ttl)
	}
}

func TestRedisExtentStore_LatestOverwrites(t *testing.T) {
	cli, _ := newMini(t)
	st := NewRedisStore(cli, 0, 0)
	ctx := context.Background()

	first := sample()
	second := sample()
	second.RunID = "run-2"
	second.Nodes = 10

	if err := st.Save(ctx, first); err != nil {
		t.Fatalf("Save first: %v", err)
	}
	if err := st.Save(ctx, second); err != nil {
		t.Fatalf("Save second: %v", err)
	}

	got, _, err := st.Latest(ctx, "sweden")
	if err != nil || got.RunID != "run-2" || got.Nodes != 10 {
		t.Fatalf("Latest=%+v err=%v", got, err)
	}
	old, found, err := st.Run(ctx, "sweden", "run-1")
	if err != nil || !found || old.Nodes != 3 {
		t.Fatalf("old run=%+v found=%v err=%v", old, found, err)
	}
}

func TestRedisExtentStore_MissesAndDelete(t *testing.T) {
	cli, mr := newMini(t)
	st := NewRedisStore(cli, time.Minute, 0)
	ctx := context.Background()

	if _, found, err := st.Latest(ctx, "nowhere"); err != nil || found {
		t.Fatalf("missing dataset found=%v err=%v", found, err)
	}

	if err := st.Save(ctx, sample()); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := st.Delete(ctx, "sweden"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, found, _ := st.Latest(ctx, "sweden"); found {
		t.Fatalf("latest still present after delete")
	}

	mr.FastForward(2 * time.Minute)
	if _, found, _ := st.Run(ctx, "sweden", "run-1"); found {
		t.Fatalf("run summary should expire")
	}
}

func TestRedisExtentStore_RejectsBadInput(t *testing.T) {
	cli, mr := newMini(t)
	st := NewRedisStore(cli, 0, 0)
	ctx := context.Background()

	if err := st.Save(ctx, extent.Summary{}); err == nil {
		t.Fatalf("expected error for summary without dataset")
	}

	if err := mr.Set(keys.ExtentKey("broken"), "{not json"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, _, err := st.Latest(ctx, "broken"); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestRedisExtentStore_SaveWithoutRunID(t *testing.T) {
	cli, mr := newMini(t)
	st := NewRedisStore(cli, time.Hour, 0)
	ctx := context.Background()

	sum := sample()
	sum.RunID = ""
	if err := st.Save(ctx, sum); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, found, err := st.Latest(ctx, "sweden")
	if err != nil || !found || got.Nodes != 3 {
		t.Fatalf("Latest=%+v found=%v err=%v", got, found, err)
	}
	if ttl := mr.TTL(keys.ExtentKey("sweden")); ttl != time.Hour {
		t.Fatalf("ttl=%v", ttl)
	}
	if n := len(mr.Keys()); n != 1 {
		t.Fatalf("keys=%v, want only the latest key", mr.Keys())
	}
}
