package views

import (
	"context"
	"fmt"
	"log"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"dashboard/internal/api"
	"dashboard/internal/collection"
	"dashboard/internal/models"
)

// CategoryDef defines the properties of a category.
type CategoryDef struct {
	Name  string
	Icon  string
	Color string
}

// Categories offered by the expense form, in display order.
var Categories = []CategoryDef{
	{"Office", "🏢", "#3B82F6"},
	{"Food", "🍽️", "#10B981"},
	{"Travel", "✈️", "#F59E0B"},
	{"Software", "💻", "#8B5CF6"},
	{"Marketing", "📣", "#EC4899"},
	{"Utilities", "💡", "#FBBF24"},
	{"Other", "📦", "#94A3B8"},
}

// DefaultCategory preselected in a new expense draft.
const DefaultCategory = "Office"

// CategoryStyle defines the visual style for a category.
type CategoryStyle struct {
	Icon  string
	Color string
}

// StyleOf returns the style of category, falling back to Other's.
func StyleOf(category string) CategoryStyle {
	for _, c := range Categories {
		if strings.EqualFold(c.Name, category) {
			return CategoryStyle{Icon: c.Icon, Color: c.Color}
		}
	}
	return CategoryStyle{Icon: "📦", Color: "#94A3B8"}
}

// ExpenseFilter selects which expenses are visible.
type ExpenseFilter struct {
	Search   string
	Category string // all or a category name
}

// FilterExpenses returns the expenses matching every part of f, in mirror order.
func FilterExpenses(expenses []models.Expense, f ExpenseFilter) []models.Expense {
	return filterSlice(expenses, func(e models.Expense) bool {
		return matchesText(f.Search, e.Title, e.Description) && matchesChoice(f.Category, e.Category)
	})
}

// ExpenseSummary aggregates a list of expenses.
type ExpenseSummary struct {
	Total   float64
	Count   int
	Average float64
}

// Summarize totals expenses. The average of an empty list is 0.
func Summarize(expenses []models.Expense) ExpenseSummary {
	s := ExpenseSummary{Count: len(expenses)}
	for _, e := range expenses {
		s.Total += e.Amount
	}
	if s.Count > 0 {
		s.Average = s.Total / float64(s.Count)
	}
	return s
}

// CategoryTotal represents a category with its spending statistics.
type CategoryTotal struct {
	Category      string
	Total         float64
	Count         int
	Percentage    float64
	CategoryStyle CategoryStyle
}

// CategoryBreakdown totals expenses per category. Known categories come first
// in display order, then unknown ones by name; categories with a zero total
// are dropped.
func CategoryBreakdown(expenses []models.Expense) []CategoryTotal {
	byName := make(map[string]*CategoryTotal)
	var total float64
	for _, e := range expenses {
		ct, ok := byName[e.Category]
		if !ok {
			ct = &CategoryTotal{Category: e.Category, CategoryStyle: StyleOf(e.Category)}
			byName[e.Category] = ct
		}
		ct.Total += e.Amount
		ct.Count++
		total += e.Amount
	}

	out := make([]CategoryTotal, 0, len(byName))
	appendCat := func(name string) {
		ct, ok := byName[name]
		if !ok || ct.Total == 0 {
			return
		}
		if total > 0 {
			ct.Percentage = ct.Total / total * 100
		}
		out = append(out, *ct)
		delete(byName, name)
	}
	for _, c := range Categories {
		appendCat(c.Name)
	}
	rest := make([]string, 0, len(byName))
	for name := range byName {
		rest = append(rest, name)
	}
	sort.Strings(rest)
	for _, name := range rest {
		appendCat(name)
	}
	return out
}

// ExpenseGroup groups expenses by date.
type ExpenseGroup struct {
	Title string
	Date  string
	Total float64
	Items []models.Expense
}

// GroupByDate groups expenses by their date, newest date first. Within a group
// the mirror order is kept.
func GroupByDate(expenses []models.Expense, now time.Time) []ExpenseGroup {
	groupsMap := make(map[string]*ExpenseGroup)
	var order []string
	for _, e := range expenses {
		date := e.Date
		if len(date) > len(models.DateLayout) {
			date = date[:len(models.DateLayout)]
		}
		g, ok := groupsMap[date]
		if !ok {
			g = &ExpenseGroup{Date: date, Title: formatGroupTitle(date, now)}
			groupsMap[date] = g
			order = append(order, date)
		}
		g.Total += e.Amount
		g.Items = append(g.Items, e)
	}

	groups := make([]ExpenseGroup, 0, len(order))
	for _, d := range order {
		groups = append(groups, *groupsMap[d])
	}
	sort.SliceStable(groups, func(i, j int) bool { return groups[i].Date > groups[j].Date })
	return groups
}

func formatGroupTitle(dateStr string, now time.Time) string {
	if dateStr == now.Format(models.DateLayout) {
		return "TODAY"
	}
	if dateStr == now.AddDate(0, 0, -1).Format(models.DateLayout) {
		return "YESTERDAY"
	}
	d, err := time.Parse(models.DateLayout, dateStr)
	if err != nil {
		return strings.ToUpper(dateStr)
	}
	return strings.ToUpper(d.Format("Mon, 02 Jan '06"))
}

// ExpenseDraft is the add-expense form. Amount is kept as typed.
type ExpenseDraft struct {
	Title       string
	Amount      string
	Category    string
	Date        string
	Description string
}

// NewExpenseDraft returns an empty form dated today.
func NewExpenseDraft() ExpenseDraft {
	return ExpenseDraft{Category: DefaultCategory, Date: models.Today()}
}

type expenseInput struct {
	Title       string  `json:"title"`
	Amount      float64 `json:"amount"`
	Category    string  `json:"category"`
	Date        string  `json:"date"`
	Description string  `json:"description"`
}

func (d ExpenseDraft) input() (expenseInput, error) {
	if strings.TrimSpace(d.Title) == "" {
		return expenseInput{}, ErrEmptyTitle
	}
	amount, err := strconv.ParseFloat(strings.TrimSpace(d.Amount), 64)
	if err != nil || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return expenseInput{}, ErrInvalidAmount
	}
	in := expenseInput{
		Title:       d.Title,
		Amount:      amount,
		Category:    d.Category,
		Date:        d.Date,
		Description: d.Description,
	}
	if in.Category == "" {
		in.Category = DefaultCategory
	}
	if in.Date == "" {
		in.Date = models.Today()
	}
	return in, nil
}

// ExpensesView is the expense tracker screen.
type ExpensesView struct {
	Mirror *collection.Mirror[models.Expense]
	Filter ExpenseFilter
	Draft  ExpenseDraft
}

// NewExpensesView creates the view over the expenses collection.
func NewExpensesView(client collection.Fetcher, logger *log.Logger) *ExpensesView {
	return &ExpensesView{
		Mirror: NewExpenseMirror(client, logger),
		Filter: ExpenseFilter{Category: All},
		Draft:  NewExpenseDraft(),
	}
}

// NewExpenseMirror creates a mirror of /api/expenses.
func NewExpenseMirror(client collection.Fetcher, logger *log.Logger) *collection.Mirror[models.Expense] {
	return collection.New("expenses", api.ExpensesPath, func(e models.Expense) string { return e.ID }, client, logger)
}

// Visible returns the filtered expenses.
func (v *ExpensesView) Visible() []models.Expense {
	return FilterExpenses(v.Mirror.Items(), v.Filter)
}

// Summary aggregates the filtered view.
func (v *ExpensesView) Summary() ExpenseSummary {
	return Summarize(v.Visible())
}

// Breakdown totals the whole mirror per category.
func (v *ExpensesView) Breakdown() []CategoryTotal {
	return CategoryBreakdown(v.Mirror.Items())
}

// Submit creates an expense from the draft. The draft is reset only on success.
func (v *ExpensesView) Submit(ctx context.Context) (models.Expense, error) {
	in, err := v.Draft.input()
	if err != nil {
		return models.Expense{}, err
	}
	created, err := v.Mirror.Create(ctx, in)
	if err != nil {
		return models.Expense{}, fmt.Errorf("%w: %w", ErrNotSaved, err)
	}
	v.Draft = NewExpenseDraft()
	return created, nil
}

// Remove deletes the expense with id.
func (v *ExpensesView) Remove(ctx context.Context, id string) error {
	return v.Mirror.Delete(ctx, id)
}
