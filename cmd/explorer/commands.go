package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"stablecoin-explorer/internal/explorer/config"
	"stablecoin-explorer/internal/explorer/model"
	"stablecoin-explorer/internal/explorer/service"
	"stablecoin-explorer/internal/explorer/solana"
	"stablecoin-explorer/internal/explorer/watchlist"
	"stablecoin-explorer/pkg/logger"

	"github.com/sourcegraph/conc/pool"
	"github.com/urfave/cli/v2"
)

var jqFlag = &cli.StringFlag{
	Name:  "jq",
	Usage: "jq expression applied to the JSON output (e.g. '.amount')",
}

// Searcher 由 *service.Explorer 实现
type Searcher interface {
	Search(ctx context.Context, query string) (service.Result, error)
}

// LookupResult 批量查询的单条输出
type LookupResult struct {
	Query  string          `json:"query"`
	Result *service.Result `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// lookupAll 并发查询多个输入，输出保持输入顺序；同一条链的请求仍由 RPC 客户端串行发出
func lookupAll(ctx context.Context, s Searcher, queries []string, parallel int) []LookupResult {
	if parallel < 1 {
		parallel = 1
	}
	results := make([]LookupResult, len(queries))
	p := pool.New().WithMaxGoroutines(parallel)
	for i, q := range queries {
		p.Go(func() {
			res, err := s.Search(ctx, q)
			if err != nil {
				results[i] = LookupResult{Query: q, Error: err.Error()}
				return
			}
			results[i] = LookupResult{Query: q, Result: &res}
		})
	}
	p.Wait()
	return results
}

func lookupCommand() *cli.Command {
	return &cli.Command{
		Name:      "lookup",
		Aliases:   []string{"search"},
		Usage:     "Classify and resolve one or more hashes, signatures or addresses",
		ArgsUsage: "QUERY [QUERY...]",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "parallel",
				Usage: "Concurrent lookups (overrides lookup.parallel)",
			},
			jqFlag,
		},
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return fmt.Errorf("at least one query is required")
			}
			rt, err := setup(c, "explorer-cli")
			if err != nil {
				return err
			}
			defer rt.close()

			ctx, span := logger.StartSpan(c.Context, "main", "lookup")
			defer span.End()

			parallel := rt.cfg.Lookup.Parallel
			if c.IsSet("parallel") {
				parallel = c.Int("parallel")
			}
			results := lookupAll(ctx, rt.core.Explorer(), c.Args().Slice(), parallel)
			if c.NArg() == 1 {
				return printJSON(os.Stdout, results[0], c.String("jq"))
			}
			return printJSON(os.Stdout, results, c.String("jq"))
		},
	}
}

func txCommand() *cli.Command {
	return &cli.Command{
		Name:      "tx",
		Usage:     "Resolve a stablecoin transfer by EVM transaction hash or Solana signature",
		ArgsUsage: "HASH_OR_SIGNATURE",
		Flags:     []cli.Flag{jqFlag},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return fmt.Errorf("exactly one transaction reference is required")
			}
			rt, err := setup(c, "explorer-cli")
			if err != nil {
				return err
			}
			defer rt.close()

			tx, err := rt.core.Explorer().Transaction(c.Context, c.Args().First())
			if err != nil {
				return describe(err)
			}
			return printJSON(os.Stdout, tx, c.String("jq"))
		},
	}
}

func addressCommand() *cli.Command {
	return &cli.Command{
		Name:      "address",
		Aliases:   []string{"addr"},
		Usage:     "Show watched stablecoin holdings of an address",
		ArgsUsage: "ADDRESS",
		Flags:     []cli.Flag{jqFlag},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return fmt.Errorf("exactly one address is required")
			}
			rt, err := setup(c, "explorer-cli")
			if err != nil {
				return err
			}
			defer rt.close()

			addr, err := rt.core.Explorer().Address(c.Context, c.Args().First())
			if err != nil {
				return describe(err)
			}
			return printJSON(os.Stdout, addr, c.String("jq"))
		},
	}
}

func supplyCommand() *cli.Command {
	return &cli.Command{
		Name:      "supply",
		Usage:     "Show total supply of a Solana mint (defaults to every watched mint)",
		ArgsUsage: "[MINT...]",
		Flags:     []cli.Flag{jqFlag},
		Action: func(c *cli.Context) error {
			mints := c.Args().Slice()
			if len(mints) == 0 {
				for _, tok := range watchlist.SolanaMints() {
					mints = append(mints, tok.Address)
				}
			}
			rt, err := setup(c, "explorer-cli")
			if err != nil {
				return err
			}
			defer rt.close()

			agg := solana.NewAggregator(rt.core.Repository().GetSolanaClient(), rt.tl)
			supplies := make([]*solana.Supply, 0, len(mints))
			for _, mint := range mints {
				s, err := agg.Supply(c.Context, mint)
				if err != nil {
					return fmt.Errorf("supply of %s: %w", mint, err)
				}
				supplies = append(supplies, s)
			}
			return printJSON(os.Stdout, supplies, c.String("jq"))
		},
	}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the JSON query API and the metrics server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Listen address (overrides server.addr)",
			},
		},
		Action: func(c *cli.Context) error {
			rt, err := setup(c, "explorer", func(cfg *config.Config) {
				if c.IsSet("addr") {
					cfg.Server.Addr = c.String("addr")
				}
			})
			if err != nil {
				return err
			}

			// 启动主 span
			ctx, span := logger.StartSpan(c.Context, "main", "serve")
			defer span.End()
			ctx, cancel := context.WithCancel(ctx)
			defer cancel()

			done := make(chan struct{})
			go func() {
				defer close(done)
				rt.core.Start(ctx)
			}()

			// 监听操作系统信号
			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
			<-quit
			rt.tl.Info("Received shutdown signal, starting graceful shutdown...")

			cancel()
			<-done
			rt.core.Stop(context.Background())
			_ = rt.shutdown(context.Background())
			_ = rt.tl.Sync()
			return nil
		},
	}
}

// describe 把查询错误转成面向用户的提示
func describe(err error) error {
	switch {
	case errors.Is(err, service.ErrInvalidQuery):
		return fmt.Errorf("invalid address or transaction format: %w", err)
	case errors.Is(err, model.ErrNotFound):
		return fmt.Errorf("not found: %w", err)
	}
	return err
}
