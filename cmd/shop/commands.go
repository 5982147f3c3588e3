package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"text/tabwriter"

	"github.com/RoyceAzure/lab/empanada/internal/appcontext"
	"github.com/RoyceAzure/lab/empanada/internal/constants"
	"github.com/RoyceAzure/lab/empanada/internal/domain/model"
	"github.com/RoyceAzure/lab/empanada/internal/service"
)

type usageError struct{}

func (*usageError) Error() string { return "invalid arguments" }

type command struct {
	name  string
	usage string
	help  string
	run   func(ctx context.Context, app *appcontext.ApplicationContext, args []string) error
}

var commands []command

func init() {
	commands = []command{
		{"products", "products [category]", "list the catalog by shelf or category", runProducts},
		{"featured", "featured [-watch]", "show featured products, -watch rotates them", runFeatured},
		{"cart", "cart [add id qty | adjust id delta | remove id | clear | sync]", "show or change the cart", runCart},
		{"register", "register name email password", "create an account", runRegister},
		{"login", "login identifier password", "sign in with email or name", runLogin},
		{"logout", "logout", "sign out", runLogout},
		{"whoami", "whoami", "show the signed-in user", runWhoami},
		{"checkout", "checkout [-yes]", "review the cart and place the order", runCheckout},
		{"history", "history", "list your orders", runHistory},
		{"admin", "admin <dashboard|orders|status|stock|save|delete|upload> ...", "back-office operations", runAdmin},
	}
}

func findCommand(name string) (command, bool) {
	for _, c := range commands {
		if c.name == name {
			return c, true
		}
	}
	return command{}, false
}

func atoi(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, &usageError{}
	}
	return n, nil
}

func newTable() *tabwriter.Writer {
	return tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
}

func printProducts(app *appcontext.ApplicationContext, products []model.Product) {
	tw := newTable()
	fmt.Fprintln(tw, "ID\tNAME\tPRICE\tSTOCK\tIMAGE")
	for _, p := range products {
		stock := strconv.Itoa(p.Stock)
		if !p.InStock() {
			stock = constants.MsgOutOfStock
		}
		fmt.Fprintf(tw, "%d\t%s\t$%d\t%s\t%s\n", p.ID, p.Name, p.Price, stock, app.Catalog.ImageURL(p))
	}
	tw.Flush()
}

func runProducts(ctx context.Context, app *appcontext.ApplicationContext, args []string) error {
	if _, err := app.Catalog.Reload(ctx); err != nil {
		return err
	}
	if len(args) > 0 {
		printProducts(app, app.Catalog.ByCategory(args[0]))
		return nil
	}
	for _, shelf := range app.Catalog.Shelves() {
		fmt.Printf("\n%s\n", shelf.Category.Title)
		printProducts(app, shelf.Products)
	}
	return nil
}

func runFeatured(ctx context.Context, app *appcontext.ApplicationContext, args []string) error {
	fs := flag.NewFlagSet("featured", flag.ContinueOnError)
	watch := fs.Bool("watch", false, "rotate until interrupted")
	if err := fs.Parse(args); err != nil {
		return &usageError{}
	}
	if _, err := app.Catalog.Reload(ctx); err != nil {
		return err
	}

	show := func(i int, p model.Product) {
		fmt.Printf("[%d] %s  $%d  %s\n", i+1, p.Name, p.Price, app.Catalog.ImageURL(p))
	}
	if !*watch {
		printProducts(app, app.Catalog.Featured(constants.FeaturedProductCount))
		return nil
	}
	carousel := app.NewCarousel(show)
	if i, p, ok := carousel.Current(); ok {
		show(i, p)
	}
	carousel.Start(ctx)
	<-ctx.Done()
	carousel.Stop()
	return nil
}

func printCart(app *appcontext.ApplicationContext) {
	if app.Cart.IsEmpty() {
		fmt.Println(constants.MsgCartEmpty)
		return
	}
	tw := newTable()
	fmt.Fprintln(tw, "ID\tNAME\tQTY\tPRICE\tSUBTOTAL")
	for _, l := range app.Cart.Lines() {
		fmt.Fprintf(tw, "%d\t%s\t%d\t$%d\t$%d\n", l.ID, l.Name, l.Quantity, l.Price, service.LineTotal(l))
	}
	tw.Flush()
	printTotals(app.Cart.Totals())
}

func printTotals(t service.Totals) {
	fmt.Printf("Neto: $%d  IVA (19%%): $%d  Total: $%d  (%d items)\n", t.Net, t.Tax, t.GrandTotal, t.Count)
}

func runCart(ctx context.Context, app *appcontext.ApplicationContext, args []string) error {
	if len(args) == 0 {
		printCart(app)
		return nil
	}
	// 庫存檢查需要最新目錄
	if _, err := app.Catalog.Reload(ctx); err != nil {
		return err
	}

	switch args[0] {
	case "add":
		if len(args) != 3 {
			return &usageError{}
		}
		id, err := atoi(args[1])
		if err != nil {
			return err
		}
		qty, err := atoi(args[2])
		if err != nil {
			return err
		}
		if err := app.Cart.Add(ctx, id, qty); err != nil {
			return err
		}
	case "adjust":
		if len(args) != 3 {
			return &usageError{}
		}
		id, err := atoi(args[1])
		if err != nil {
			return err
		}
		delta, err := atoi(args[2])
		if err != nil {
			return err
		}
		if _, err := app.Cart.Adjust(ctx, id, delta); err != nil {
			return err
		}
	case "remove":
		if len(args) != 2 {
			return &usageError{}
		}
		id, err := atoi(args[1])
		if err != nil {
			return err
		}
		if err := app.Cart.Remove(ctx, id); err != nil {
			return err
		}
	case "clear":
		if err := app.Cart.Clear(ctx); err != nil {
			return err
		}
	case "sync":
		changes, err := app.Cart.Reconcile(ctx)
		if err != nil {
			return err
		}
		for _, c := range changes {
			fmt.Printf("%s: %d -> %d\n", c.Name, c.From, c.To)
		}
	default:
		return &usageError{}
	}
	printCart(app)
	return nil
}

func runRegister(ctx context.Context, app *appcontext.ApplicationContext, args []string) error {
	if len(args) != 3 {
		return &usageError{}
	}
	return app.Session.Register(ctx, args[0], args[1], args[2])
}

func runLogin(ctx context.Context, app *appcontext.ApplicationContext, args []string) error {
	if len(args) != 2 {
		return &usageError{}
	}
	_, err := app.Session.Login(ctx, args[0], args[1])
	return err
}

func runLogout(ctx context.Context, app *appcontext.ApplicationContext, _ []string) error {
	return app.Session.Logout(ctx)
}

func runWhoami(_ context.Context, app *appcontext.ApplicationContext, _ []string) error {
	user, ok := app.Session.User()
	if !ok {
		fmt.Println(constants.MsgMustLogin)
		return nil
	}
	fmt.Printf("%s <%s> (%s)\n", user.Name, user.Email, user.Role)
	return nil
}

func runCheckout(ctx context.Context, app *appcontext.ApplicationContext, args []string) error {
	fs := flag.NewFlagSet("checkout", flag.ContinueOnError)
	yes := fs.Bool("yes", false, "pay without asking")
	if err := fs.Parse(args); err != nil {
		return &usageError{}
	}
	// 空購物車與未登入在本地擋下，不發任何請求
	review, err := app.Checkout.Open(ctx)
	if err != nil {
		return err
	}
	if _, err := app.Catalog.Reload(ctx); err != nil {
		app.Checkout.Cancel()
		return err
	}
	fmt.Printf("Cliente: %s\n", review.Email)
	tw := newTable()
	for _, l := range review.Lines {
		fmt.Fprintf(tw, "%s\tx%d\t$%d\n", l.Name, l.Quantity, service.LineTotal(l))
	}
	tw.Flush()
	printTotals(review.Totals)

	if !*yes {
		fmt.Print("¿Pagar? [s/N] ")
		var answer string
		_, _ = fmt.Scanln(&answer)
		if answer != "s" && answer != "S" {
			app.Checkout.Cancel()
			return nil
		}
	}

	receipt, err := app.Checkout.Submit(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Pedido #%s (%s)\n", model.Order{ID: receipt.ID}.ShortID(), receipt.Status)
	return nil
}

func printOrders(orders []model.Order) {
	tw := newTable()
	fmt.Fprintln(tw, "ID\tCLIENTE\tTOTAL\tESTADO\tITEMS")
	for _, o := range orders {
		items := 0
		for _, it := range o.Items {
			items += it.Quantity
		}
		fmt.Fprintf(tw, "#%s\t%s\t$%d\t%s\t%d\n", o.ShortID(), o.CustomerEmail, o.Total, o.Status, items)
	}
	tw.Flush()
}

func runHistory(ctx context.Context, app *appcontext.ApplicationContext, _ []string) error {
	orders, err := app.Orders.History(ctx)
	if err != nil {
		return err
	}
	printOrders(orders)
	return nil
}

func runAdmin(ctx context.Context, app *appcontext.ApplicationContext, args []string) error {
	if len(args) == 0 {
		return &usageError{}
	}
	switch args[0] {
	case "dashboard":
		dash, err := app.Admin.Dashboard(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("Ventas: $%d  Pedidos: %d\n", dash.Metrics.Revenue, dash.Metrics.OrderCount)
		for _, sc := range dash.Metrics.ByStatus {
			fmt.Printf("  %-12s %d\n", sc.Status, sc.Count)
		}
		if len(dash.LowStock) > 0 {
			fmt.Println("\nStock bajo:")
			printProducts(app, dash.LowStock)
		}
		return nil
	case "orders":
		orders, err := app.Admin.ListOrders(ctx)
		if err != nil {
			return err
		}
		printOrders(orders)
		return nil
	case "status":
		if len(args) != 3 {
			return &usageError{}
		}
		return app.Admin.ChangeOrderStatus(ctx, args[1], args[2])
	case "stock":
		if len(args) != 3 {
			return &usageError{}
		}
		id, err := atoi(args[1])
		if err != nil {
			return err
		}
		qty, err := atoi(args[2])
		if err != nil {
			return err
		}
		return app.Admin.AddStock(ctx, id, qty)
	case "delete":
		if len(args) != 2 {
			return &usageError{}
		}
		id, err := atoi(args[1])
		if err != nil {
			return err
		}
		return app.Admin.DeleteProduct(ctx, id)
	case "save":
		return runAdminSave(ctx, app, args[1:])
	case "upload":
		if len(args) != 2 {
			return &usageError{}
		}
		f, err := os.Open(args[1])
		if err != nil {
			return err
		}
		defer f.Close()
		url, err := app.Admin.UploadImage(ctx, filepath.Base(args[1]), f)
		if err != nil {
			return err
		}
		fmt.Println(url)
		return nil
	default:
		return &usageError{}
	}
}

func runAdminSave(ctx context.Context, app *appcontext.ApplicationContext, args []string) error {
	fs := flag.NewFlagSet("admin save", flag.ContinueOnError)
	edit := fs.Int("edit", 0, "id of the product being edited, 0 creates")
	id := fs.Int("id", 0, "product id")
	name := fs.String("name", "", "product name")
	category := fs.String("category", "horno", "horno|frita|bebida|acompañamiento")
	price := fs.Int64("price", 0, "price with tax")
	stock := fs.Int("stock", 0, "units in stock")
	image := fs.String("image", "", "image name or url")
	if err := fs.Parse(args); err != nil {
		return &usageError{}
	}
	return app.Admin.SaveProduct(ctx, model.Product{
		ID:       *id,
		Name:     *name,
		Category: *category,
		Price:    *price,
		Stock:    *stock,
		Image:    *image,
	}, *edit)
}
