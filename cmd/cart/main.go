// Command cart manages a storefront cart from the terminal. The cart is kept
// in a file under the user's config directory and survives between runs.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"text/tabwriter"

	"github.com/go-faster/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/xenking/mateicos-storefront/internal/domain/cart"
	"github.com/xenking/mateicos-storefront/internal/domain/catalog"
	"github.com/xenking/mateicos-storefront/internal/domain/checkout"
	"github.com/xenking/mateicos-storefront/internal/storage/file"
)

const usage = `Usage: cart [flags] <command> [args]

Commands:
  catalog [category]   list products
  list                 show the cart
  add <id>             add one unit of a product
  remove <id>          remove a product
  qty <id> <n>         set the quantity of a product
  inc <id>             add one unit
  dec <id>             remove one unit (never below 1)
  clear                empty the cart
  checkout             print the order link

Flags:
`

func main() {
	fs := flag.NewFlagSet("cart", flag.ExitOnError)
	var (
		path    = fs.String("file", "", "cart file (defaults to the user config directory)")
		openURL = fs.Bool("open", false, "open the checkout link in the browser")
		verbose = fs.Bool("v", false, "verbose logging")
	)
	fs.Usage = func() {
		fmt.Fprint(fs.Output(), usage)
		fs.PrintDefaults()
	}
	_ = fs.Parse(os.Args[1:])

	lg := newLogger(*verbose)
	defer func() { _ = lg.Sync() }()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if fs.NArg() == 0 {
		fs.Usage()
		os.Exit(2)
	}

	c, err := setup(ctx, lg, *path, *openURL)
	if err != nil {
		lg.Fatal("Failed to start", zap.Error(err))
	}
	if err := c.run(ctx, fs.Args()); err != nil {
		fmt.Fprintln(os.Stderr, "cart:", err)
		os.Exit(1)
	}
}

func newLogger(verbose bool) *zap.Logger {
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	cfg.DisableStacktrace = true
	lg, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return lg
}

func setup(ctx context.Context, lg *zap.Logger, path string, openURL bool) (*cli, error) {
	if path == "" {
		p, err := file.DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	lg.Debug("Using cart file", zap.String("path", path))

	products, err := catalog.Embedded()
	if err != nil {
		return nil, err
	}

	var opts []checkout.Option
	opts = append(opts, checkout.WithLogger(lg))
	if openURL {
		opts = append(opts, checkout.WithOpener(checkout.BrowserOpener{}))
	}
	handoff, err := checkout.New(checkout.Config{}, opts...)
	if err != nil {
		return nil, err
	}

	return &cli{
		out:     os.Stdout,
		store:   cart.Open(ctx, file.New(path), cart.WithLogger(lg)),
		catalog: products,
		handoff: handoff,
	}, nil
}

type cli struct {
	out     io.Writer
	store   *cart.Store
	catalog catalog.Repository
	handoff *checkout.Handoff
}

func (c *cli) run(ctx context.Context, args []string) error {
	cmd, args := args[0], args[1:]

	id := func() (string, error) {
		if len(args) < 1 {
			return "", errors.Errorf("%s: product id required", cmd)
		}
		return args[0], nil
	}

	switch cmd {
	case "catalog":
		category := ""
		if len(args) > 0 {
			category = args[0]
		}
		return c.listCatalog(ctx, category)
	case "list":
		return c.list()
	case "add":
		pid, err := id()
		if err != nil {
			return err
		}
		p, err := c.catalog.GetByID(ctx, pid)
		if err != nil {
			return err
		}
		return c.mutate(c.store.Add(ctx, p.CartProduct()))
	case "remove":
		pid, err := id()
		if err != nil {
			return err
		}
		return c.mutate(c.store.Remove(ctx, pid))
	case "qty":
		if len(args) < 2 {
			return errors.New("qty: product id and quantity required")
		}
		return c.mutate(c.store.SetQuantity(ctx, args[0], cart.ParseQuantity(args[1])))
	case "inc", "dec":
		pid, err := id()
		if err != nil {
			return err
		}
		delta := 1
		if cmd == "dec" {
			delta = -1
		}
		return c.mutate(c.store.AdjustQuantity(ctx, pid, delta))
	case "clear":
		return c.mutate(c.store.Clear(ctx))
	case "checkout":
		u, err := c.handoff.Checkout(ctx, c.store)
		if u != "" {
			fmt.Fprintln(c.out, u)
		}
		return err
	default:
		return errors.Errorf("unknown command %q", cmd)
	}
}

// mutate prints the cart after a successful change, warning when it could
// not be saved.
func (c *cli) mutate(err error) error {
	if err != nil {
		return err
	}
	if snap := c.store.Snapshot(); snap.PersistErr != nil {
		fmt.Fprintln(c.out, "warning: the cart could not be saved, changes are lost on exit")
	}
	return c.list()
}

func (c *cli) list() error {
	snap := c.store.Snapshot()
	if len(snap.Lines) == 0 {
		_, err := fmt.Fprintln(c.out, "Tu carrito está vacío")
		return err
	}

	f := c.store.Formatter()
	tw := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tPRODUCTO\tCANT.\tPRECIO\tSUBTOTAL")
	for _, l := range snap.Lines {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			l.ID, l.Name, strconv.Itoa(l.Quantity), f.Money(l.UnitPrice), f.Money(l.Subtotal()))
	}
	fmt.Fprintf(tw, "\t\t%d\t\t%s\n", snap.ItemCount, f.Money(snap.Total))
	return tw.Flush()
}

func (c *cli) listCatalog(ctx context.Context, category string) error {
	var (
		products []catalog.Product
		err      error
	)
	if category == "" {
		products, err = c.catalog.List(ctx)
	} else {
		products, err = c.catalog.ListByCategory(ctx, category)
	}
	if err != nil {
		return err
	}

	f := c.store.Formatter()
	tw := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tPRODUCTO\tCATEGORÍA\tPRECIO")
	for _, p := range products {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", p.ID, p.Name, p.Category, f.Money(p.Price))
	}
	return tw.Flush()
}
