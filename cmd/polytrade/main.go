package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/betbot/polytrade/internal/app"
	"github.com/betbot/polytrade/internal/trading"
	"github.com/betbot/polytrade/pkg/logger"
	"github.com/joho/godotenv"
)

const usage = `用法: polytrade [-config file] <command> [flags]

命令:
  balance      查询 USDC 余额
  order        下单 (-side BUY|SELL -token ID -price P -size S [-tif GTC])
  import-env   把 .env 导入密钥库 (-in .env -prefix env/)
`

func main() {
	// .env 可选，缺失时只使用真实环境变量
	_ = godotenv.Load()

	cfgPath := flag.String("config", os.Getenv("POLYTRADE_CONFIG"), "config file (yaml/json)")
	timeout := flag.Duration("timeout", 30*time.Second, "request timeout")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}
	cmd, args := flag.Arg(0), flag.Args()[1:]

	a, err := app.Open(*cfgPath)
	if err != nil {
		fatal(err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	err = run(ctx, a, cmd, args)
	if cerr := a.Close(context.Background()); cerr != nil && err == nil {
		err = cerr
	}
	if err != nil {
		fatal(err)
	}
}

func run(ctx context.Context, a *app.App, cmd string, args []string) error {
	switch cmd {
	case "balance":
		res, err := a.Adapter.Balance(ctx, &a.Config.Polymarket)
		if err != nil {
			return err
		}
		return printJSON(res)

	case "order":
		fs := flag.NewFlagSet("order", flag.ExitOnError)
		var req trading.OrderRequest
		fs.StringVar(&req.Side, "side", "", "BUY or SELL")
		fs.StringVar(&req.TokenID, "token", "", "outcome token id")
		fs.Float64Var(&req.Price, "price", 0, "limit price")
		fs.Float64Var(&req.Size, "size", 0, "size in shares")
		fs.StringVar(&req.TimeInForce, "tif", "", "GTC, GTD, FOK or FAK")
		_ = fs.Parse(args)

		resp, err := a.Adapter.PlaceOrder(ctx, &a.Config.Polymarket, req)
		if err != nil {
			return err
		}
		return printJSON(resp)

	case "import-env":
		fs := flag.NewFlagSet("import-env", flag.ExitOnError)
		in := fs.String("in", ".env", "input .env file path")
		prefix := fs.String("prefix", app.EnvPrefix, "key prefix inside the store")
		_ = fs.Parse(args)

		if a.Store == nil {
			return fmt.Errorf("密钥库未配置: 设置 SECRET_STORE_PATH")
		}
		n, err := app.ImportEnv(a.Store, *in, *prefix)
		if err != nil {
			return err
		}
		logger.Infof("已导入 %d 项到 %s（前缀 %s）", n, a.Config.SecretStore.Path, *prefix)
		return nil

	default:
		flag.Usage()
		return fmt.Errorf("未知命令: %s", cmd)
	}
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "error:", err.Error())
	os.Exit(1)
}
