// main.go - demonstrates the pour protocol end to end: mint two coins,
// spend them in a pour, and append both to a persisted ledger. This is
// a batch demo, not a network server: the protocol layer this module
// implements defines transaction validity, not how peers exchange them.
//
// Usage:
//
//	go run ./cmd/zeropourd [config.json]
package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"zeropour/internal/address"
	"zeropour/internal/coin"
	"zeropour/internal/ledger"
	"zeropour/internal/mint"
	"zeropour/internal/pour"
	"zeropour/internal/statement"
)

func main() {
	configPath := "zeropourd.json"
	if len(os.Args) > 1 {
		configPath = os.Args[1]
	}

	cfg, err := LoadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}
	log := newLogger(cfg.LogLevel)

	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("run failed")
	}
}

func run(cfg *Config, log zerolog.Logger) error {
	log.Info().Int("tree_depth", cfg.TreeDepth).Msg("starting pour demo")

	l, err := ledger.New(cfg.TreeDepth)
	if err != nil {
		return fmt.Errorf("new ledger: %w", err)
	}

	backend, err := statement.NewGroth16Backend()
	if err != nil {
		return fmt.Errorf("new backend: %w", err)
	}
	log.Info().Msg("running trusted setup for the pour circuit")
	if err := backend.Setup(); err != nil {
		return fmt.Errorf("setup: %w", err)
	}

	for round := 0; round < cfg.NumRounds; round++ {
		if err := runRound(l, backend, log); err != nil {
			return fmt.Errorf("round %d: %w", round, err)
		}
	}

	if err := l.SaveToFile(cfg.LedgerPath); err != nil {
		return fmt.Errorf("save ledger: %w", err)
	}
	log.Info().Str("path", cfg.LedgerPath).Int("entries", len(l.Entries)).Msg("ledger persisted")
	return nil
}

// runRound mints two coins, spends both in a single pour, and appends
// both transactions to l.
func runRound(l *ledger.Ledger, backend *statement.Groth16Backend, log zerolog.Logger) error {
	aliceAddr, err := address.New()
	if err != nil {
		return err
	}
	bobAddr, err := address.New()
	if err != nil {
		return err
	}

	aliceCoin, err := coin.New(aliceAddr.Public.Apk, 5)
	if err != nil {
		return err
	}
	bobCoin, err := coin.New(bobAddr.Public.Apk, 3)
	if err != nil {
		return err
	}

	aliceMint, err := mint.New(aliceCoin)
	if err != nil {
		return err
	}
	bobMint, err := mint.New(bobCoin)
	if err != nil {
		return err
	}

	aliceIdx, err := l.AppendMint(aliceMint)
	if err != nil {
		return fmt.Errorf("append alice mint: %w", err)
	}
	bobIdx, err := l.AppendMint(bobMint)
	if err != nil {
		return fmt.Errorf("append bob mint: %w", err)
	}
	log.Info().Uint64("alice_idx", aliceIdx).Uint64("bob_idx", bobIdx).Msg("minted two coins")

	aliceSiblings, err := l.Tree.GetWitness(aliceIdx)
	if err != nil {
		return err
	}
	bobSiblings, err := l.Tree.GetWitness(bobIdx)
	if err != nil {
		return err
	}

	carolAddr, err := address.New()
	if err != nil {
		return err
	}
	daveAddr, err := address.New()
	if err != nil {
		return err
	}
	carolCoin, err := coin.New(carolAddr.Public.Apk, 4)
	if err != nil {
		return err
	}
	daveCoin, err := coin.New(daveAddr.Public.Apk, 4)
	if err != nil {
		return err
	}

	spends := [2]*pour.Spend{
		{Coin: aliceCoin, Owner: aliceAddr, Index: aliceIdx, Siblings: aliceSiblings},
		{Coin: bobCoin, Owner: bobAddr, Index: bobIdx, Siblings: bobSiblings},
	}
	outputs := [2]*pour.Output{
		{Coin: carolCoin, Recipient: carolAddr.Public},
		{Coin: daveCoin, Recipient: daveAddr.Public},
	}

	pubkeyHash, err := pour.RandomPubkeyHash()
	if err != nil {
		return err
	}

	log.Info().Msg("proving pour transaction")
	tx, err := pour.New(pour.VersionCurrent, l.Root(), spends, outputs, 0, 0, pubkeyHash[:], backend)
	if err != nil {
		return fmt.Errorf("pour.New: %w", err)
	}

	idx0, idx1, err := l.AppendPour(tx, pubkeyHash[:], backend)
	if err != nil {
		return fmt.Errorf("append pour: %w", err)
	}
	log.Info().Uint64("carol_idx", idx0).Uint64("dave_idx", idx1).Msg("pour appended")
	return nil
}
