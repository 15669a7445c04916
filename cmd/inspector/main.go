// Inspector replays a session-context JSON file through a fresh engine and
// prints the factor breakdown. Useful when tuning detection behavior against
// captured telemetry.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/TrustArcade/trustgate/internal/config"
	"github.com/TrustArcade/trustgate/internal/model"
	"github.com/TrustArcade/trustgate/internal/repository"
	"github.com/TrustArcade/trustgate/internal/service"
)

func main() {
	file := flag.String("file", "", "path to a session context JSON file")
	repeat := flag.Int("repeat", 1, "number of times to feed the session (builds history)")
	flag.Parse()

	if *file == "" {
		log.Fatal("usage: inspector -file session.json [-repeat N]")
	}
	if *repeat < 1 {
		*repeat = 1
	}

	raw, err := os.ReadFile(*file)
	if err != nil {
		log.Fatalf("read session file: %v", err)
	}
	var sctx model.SessionContext
	if err := json.Unmarshal(raw, &sctx); err != nil {
		log.Fatalf("parse session file: %v", err)
	}

	engine := service.NewTrustEngine(config.EngineConfig{}, service.TrustEngineDeps{
		Profiles:     repository.NewMemoryProfileStore(),
		Fingerprints: repository.NewMemoryFingerprintStore(),
		Baselines:    repository.NewMemoryBaselineStore(0),
		Detections:   repository.NewMemoryDetectionStore(0),
		Sanctions:    service.NewSanctionEngine(repository.NewMemorySanctionStore(), nil),
	})

	var result *model.AnalysisResult
	for i := 0; i < *repeat; i++ {
		result, err = engine.AnalyzeSession(context.Background(), &sctx)
		if err != nil {
			log.Fatalf("analysis failed: %v", err)
		}
	}

	fmt.Printf("trust score: %d (%s)\n", result.TrustScore, result.Status)
	fmt.Printf("profile trust score: %d\n\n", result.ProfileTrustScore)
	printFactor("replay", result.Factors.Replay)
	printFactor("statistical", result.Factors.Statistical)
	printFactor("behavior", result.Factors.Behavior)
	printFactor("reputation", result.Factors.Reputation)
	printFactor("session", result.Factors.Session)
	printFactor("environment", result.Factors.Environment)

	if len(result.Sanctions) > 0 {
		fmt.Println("\nsanctions:")
		for _, s := range result.Sanctions {
			fmt.Printf("  %-20s %s\n", s.Type, s.Reason)
		}
	}
}

func printFactor(name string, f model.FactorResult) {
	fmt.Printf("%-12s %6.1f  %s\n", name, f.Score, f.Details)
}
