package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"text/tabwriter"
	"time"

	"dashboard/internal/api"
	"dashboard/internal/collection"
	"dashboard/internal/models"
	"dashboard/internal/routes"
	"dashboard/internal/views"
)

func (a *app) newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	return fs
}

func subcommand(args []string, def string) (string, []string) {
	if len(args) == 0 || (len(args[0]) > 0 && args[0][0] == '-') {
		return def, args
	}
	return args[0], args[1:]
}

func (a *app) dashboard(ctx context.Context) error {
	if err := a.open(routes.Dashboard); err != nil {
		return err
	}
	v := views.NewDashboardView(a.client, a.logger)
	v.Mount(ctx, a.session)
	defer v.Unmount()

	s := v.Summary()
	fmt.Fprintf(a.stdout, "Tasks: %d (completed %d, pending %d)\n", s.Todos.Total, s.Todos.Completed, s.Todos.Pending)
	fmt.Fprintf(a.stdout, "Expenses: $%.2f\n", s.TotalExpenses)

	fmt.Fprintln(a.stdout, "\nRecent tasks:")
	a.printTodos(v.RecentTodos())
	fmt.Fprintln(a.stdout, "\nRecent expenses:")
	w := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
	for _, e := range v.RecentExpenses() {
		fmt.Fprintf(w, "%s\t%s\t%s\t$%.2f\n", e.ID, e.Title, e.Category, e.Amount)
	}
	return w.Flush()
}

func (a *app) todos(ctx context.Context, args []string) error {
	if err := a.open(routes.Todos); err != nil {
		return err
	}
	sub, args := subcommand(args, "list")

	v := views.NewTodosView(a.client, a.logger)
	v.Mirror.Mount(ctx, a.session)
	defer v.Mirror.Unmount()

	switch sub {
	case "list":
		fs := a.newFlagSet("todos list")
		fs.StringVar(&v.Filter.Search, "search", "", "Search title and description")
		fs.StringVar(&v.Filter.Status, "status", views.All, "all, pending or completed")
		fs.StringVar(&v.Filter.Priority, "priority", views.All, "all, low, medium or high")
		if err := fs.Parse(args); err != nil {
			return err
		}
		visible := v.Visible()
		a.printTodos(visible)
		c := v.Counts()
		fmt.Fprintf(a.stdout, "\n%d shown, %d total, %d completed, %d pending\n", len(visible), c.Total, c.Completed, c.Pending)
		return nil

	case "add":
		fs := a.newFlagSet("todos add")
		fs.StringVar(&v.Draft.Title, "title", "", "Title")
		fs.StringVar(&v.Draft.Description, "description", "", "Description")
		priority := fs.String("priority", string(models.PriorityMedium), "low, medium or high")
		fs.StringVar(&v.Draft.DueDate, "due", "", "Due date YYYY-MM-DD (default today)")
		if err := fs.Parse(args); err != nil {
			return err
		}
		p, ok := models.ParsePriority(*priority)
		if !ok {
			return fmt.Errorf("invalid priority %q", *priority)
		}
		v.Draft.Priority = p
		t, err := v.Submit(ctx)
		if err != nil {
			return fmt.Errorf("todo not added: %w", err)
		}
		fmt.Fprintf(a.stdout, "Added %s: %s\n", t.ID, t.Title)
		return nil

	case "toggle":
		id, err := firstArg(args)
		if err != nil {
			return err
		}
		t, ok := v.Mirror.Find(id)
		if !ok {
			return fmt.Errorf("todo %s: %w", id, errNotFound)
		}
		err = v.Toggle(ctx, id)
		if errors.Is(err, collection.ErrNotMirrored) {
			// Accepted by the server after the todo left the local list.
			fmt.Fprintf(a.stdout, "%s %s\n", checkbox(!t.Completed), t.Title)
			return nil
		}
		if err := confirmed("todo", id, err); err != nil {
			return err
		}
		t, _ = v.Mirror.Find(id)
		fmt.Fprintf(a.stdout, "%s %s\n", checkbox(t.Completed), t.Title)
		return nil

	case "rm":
		id, err := firstArg(args)
		if err != nil {
			return err
		}
		if err := confirmed("todo", id, v.Remove(ctx, id)); err != nil {
			return err
		}
		fmt.Fprintf(a.stdout, "Deleted %s\n", id)
		return nil
	}
	return fmt.Errorf("%w: todos %s", errUnknownCmd, sub)
}

func (a *app) expenses(ctx context.Context, args []string) error {
	if err := a.open(routes.Expenses); err != nil {
		return err
	}
	sub, args := subcommand(args, "list")

	v := views.NewExpensesView(a.client, a.logger)
	v.Mirror.Mount(ctx, a.session)
	defer v.Mirror.Unmount()

	switch sub {
	case "list":
		fs := a.newFlagSet("expenses list")
		fs.StringVar(&v.Filter.Search, "search", "", "Search title and description")
		fs.StringVar(&v.Filter.Category, "category", views.All, "all or a category name")
		if err := fs.Parse(args); err != nil {
			return err
		}
		w := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
		for _, g := range views.GroupByDate(v.Visible(), time.Now()) {
			fmt.Fprintf(w, "%s\t\t\t$%.2f\n", g.Title, g.Total)
			for _, e := range g.Items {
				fmt.Fprintf(w, "  %s\t%s %s\t%s\t$%.2f\n", e.ID, views.StyleOf(e.Category).Icon, e.Title, e.Category, e.Amount)
			}
		}
		if err := w.Flush(); err != nil {
			return err
		}
		s := v.Summary()
		fmt.Fprintf(a.stdout, "\nTotal $%.2f over %d expenses, average $%.2f\n", s.Total, s.Count, s.Average)
		return nil

	case "add":
		fs := a.newFlagSet("expenses add")
		fs.StringVar(&v.Draft.Title, "title", "", "Title")
		fs.StringVar(&v.Draft.Amount, "amount", "", "Amount")
		fs.StringVar(&v.Draft.Category, "category", views.DefaultCategory, "Category")
		fs.StringVar(&v.Draft.Date, "date", models.Today(), "Date YYYY-MM-DD")
		fs.StringVar(&v.Draft.Description, "description", "", "Description")
		if err := fs.Parse(args); err != nil {
			return err
		}
		e, err := v.Submit(ctx)
		if err != nil {
			return fmt.Errorf("expense not added: %w", err)
		}
		fmt.Fprintf(a.stdout, "Added %s: %s $%.2f\n", e.ID, e.Title, e.Amount)
		return nil

	case "rm":
		id, err := firstArg(args)
		if err != nil {
			return err
		}
		if err := confirmed("expense", id, v.Remove(ctx, id)); err != nil {
			return err
		}
		fmt.Fprintf(a.stdout, "Deleted %s\n", id)
		return nil

	case "stats":
		w := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
		for _, c := range v.Breakdown() {
			fmt.Fprintf(w, "%s %s\t%d\t$%.2f\t%.0f%%\n", c.CategoryStyle.Icon, c.Category, c.Count, c.Total, c.Percentage)
		}
		return w.Flush()
	}
	return fmt.Errorf("%w: expenses %s", errUnknownCmd, sub)
}

func (a *app) admin(ctx context.Context, args []string) error {
	sub, args := subcommand(args, "stats")
	path := routes.Admin
	if sub != "stats" {
		path = routes.AdminUsers
	}
	if err := a.open(path); err != nil {
		return err
	}

	v := views.NewAdminView(a.client, a.logger)
	v.Load(ctx)
	defer v.Users.Unmount()

	switch sub {
	case "stats":
		st := v.Stats()
		fmt.Fprintf(a.stdout, "Users: %d (active %d)\n", st.TotalUsers, st.ActiveUsers)
		fmt.Fprintf(a.stdout, "Revenue: $%.2f\n", st.TotalRevenue)
		fmt.Fprintf(a.stdout, "Growth: %.1f%%\n", st.GrowthRate)
		fmt.Fprintln(a.stdout, "\nRecent users:")
		a.printUsers(v.Recent())
		return nil

	case "users":
		fs := a.newFlagSet("admin users")
		fs.StringVar(&v.Filter.Search, "search", "", "Search name and email")
		fs.StringVar(&v.Filter.Role, "role", views.All, "all, user or admin")
		if err := fs.Parse(args); err != nil {
			return err
		}
		a.printUsers(v.Visible())
		return nil

	case "add":
		fs := a.newFlagSet("admin add")
		var in views.NewUser
		fs.StringVar(&in.Name, "name", "", "Name")
		fs.StringVar(&in.Email, "email", "", "Email")
		passwordFlag := fs.String("password", "", "Password (optional, will prompt if omitted)")
		admin := fs.Bool("admin", false, "Grant the admin role")
		if err := fs.Parse(args); err != nil {
			return err
		}
		if in.Name == "" || in.Email == "" {
			fs.PrintDefaults()
			return fmt.Errorf("missing required flags: name, email")
		}
		pw, err := a.password(*passwordFlag)
		if err != nil {
			return err
		}
		in.Password = pw
		if *admin {
			in.Role = models.RoleAdmin
		}
		u, err := v.Add(ctx, in)
		if err != nil {
			return errNotConfirmed
		}
		fmt.Fprintf(a.stdout, "User %s created successfully with ID %s\n", u.Email, u.ID)
		return nil

	case "role":
		if len(args) != 2 {
			return errors.New("usage: admin role <id> <user|admin>")
		}
		role := models.Role(args[1])
		if role != models.RoleUser && role != models.RoleAdmin {
			return fmt.Errorf("invalid role %q", args[1])
		}
		if _, ok := v.Users.Find(args[0]); !ok {
			return fmt.Errorf("user %s: %w", args[0], errNotFound)
		}
		if err := confirmed("user", args[0], v.SetRole(ctx, args[0], role)); err != nil {
			return err
		}
		fmt.Fprintf(a.stdout, "%s is now %s\n", args[0], role)
		return nil

	case "rm":
		id, err := firstArg(args)
		if err != nil {
			return err
		}
		if err := confirmed("user", id, v.Remove(ctx, id)); err != nil {
			return err
		}
		fmt.Fprintf(a.stdout, "Deleted %s\n", id)
		return nil
	}
	return fmt.Errorf("%w: admin %s", errUnknownCmd, sub)
}

func (a *app) printTodos(todos []models.Todo) {
	now := time.Now()
	w := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
	for _, t := range todos {
		due := t.DueDate
		if views.Overdue(t, now) {
			due += " (overdue)"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", t.ID, checkbox(t.Completed), t.Priority, due, t.Title)
	}
	w.Flush()
}

func (a *app) printUsers(users []models.User) {
	w := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
	for _, u := range users {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", u.ID, u.Name, u.Email, u.Role)
	}
	w.Flush()
}

// confirmed maps the result of a mirror mutation to a CLI error. A change
// the server accepted is a success even if the item left the local list.
// Failures have already been logged.
func confirmed(kind, id string, err error) error {
	switch {
	case err == nil, errors.Is(err, collection.ErrNotMirrored):
		return nil
	case api.IsNotFound(err):
		return fmt.Errorf("%s %s: %w", kind, id, errNotFound)
	default:
		return errNotConfirmed
	}
}

func checkbox(done bool) string {
	if done {
		return "[x]"
	}
	return "[ ]"
}

func firstArg(args []string) (string, error) {
	if len(args) == 0 || args[0] == "" {
		return "", errMissingID
	}
	return args[0], nil
}
