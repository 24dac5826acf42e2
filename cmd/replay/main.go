package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"scanserver/internal/aggregator"
	"scanserver/internal/config"
	"scanserver/internal/logger"
	"scanserver/internal/model"
	"scanserver/internal/repository/sqlite"
)

func main() {
	cfg := config.Load()

	input := flag.String("input", "", "CSV file of code,errorScore rows")
	dbPath := flag.String("db", "", "Store the result in this session database")
	interval := flag.Duration("interval", 33*time.Millisecond, "Time between replayed frames")
	stopCount := flag.Int("stop", cfg.StopCount, "Count at which a single code is accepted")
	symbology := flag.String("symbology", cfg.Symbology, "Barcode symbology (upc, ean13, ean8)")
	flag.Parse()

	if *input == "" {
		flag.Usage()
		os.Exit(2)
	}

	file, err := os.Open(*input)
	if err != nil {
		log.Fatalf("Failed to open input: %v", err)
	}
	defer file.Close()

	clock := newStepClock(time.Now(), *interval)
	agg := aggregator.New(aggregator.Options{
		ErrorThreshold: cfg.ErrorThreshold,
		StopCount:      *stopCount,
		Symbology:      *symbology,
		Logger:         logger.NewWriterLogger(os.Stderr),
		Now:            clock.Now,
	})

	snap, replayed, err := Replay(file, agg)
	if err != nil {
		log.Fatalf("Replay failed: %v", err)
	}

	fmt.Printf("Replayed %d observations from %s\n", replayed, *input)
	printSnapshot(snap)

	if *dbPath == "" {
		return
	}

	outcome := model.OutcomeStopped
	if snap.Converged {
		outcome = model.OutcomeConverged
	}
	if err := store(*dbPath, model.NewSessionResult(snap, outcome, clock.Now())); err != nil {
		log.Fatalf("Failed to store session: %v", err)
	}
	fmt.Printf("✅ Stored session %s in %s\n", snap.SessionID, *dbPath)
}

func store(dbPath string, result *model.SessionResult) error {
	db, err := sqlite.New(dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	return sqlite.NewSessionRepository(db).Insert(result)
}

func printSnapshot(snap *model.Snapshot) {
	if winner, ok := snap.Winner(); ok {
		fmt.Printf("🏁 Converged on %s (%s)\n", winner.Code, winner.Status)
	} else {
		fmt.Printf("⏳ No decision, scanning would continue\n")
	}

	fmt.Printf("\n📊 Ranking:\n")
	for _, e := range snap.Entries {
		fmt.Printf("   %-16s %5d  %s\n", e.Code, e.Count, e.Status)
	}
	if len(snap.Rejected) > 0 {
		fmt.Printf("\n🚫 Rejected:\n")
		for code, count := range snap.Rejected {
			fmt.Printf("   %-16s %5d\n", code, count)
		}
	}

	t := snap.Timing
	fmt.Printf("\n⏱️  accepted=%d rejected=%d elapsed=%dms accept/s=%.2f detect/s=%.2f\n",
		t.AcceptedTotal, t.RejectedTotal, t.ElapsedMs, snap.Rates.Accept, snap.Rates.Detect)
}
