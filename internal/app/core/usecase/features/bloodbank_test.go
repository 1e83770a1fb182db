package features

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/cucumber/godog"

	"github.com/JoeShih716/go-blood-ledger/internal/app/core/adapter/out/memory"
	"github.com/JoeShih716/go-blood-ledger/internal/app/core/domain"
	"github.com/JoeShih716/go-blood-ledger/internal/app/core/usecase"
)

type bloodBankTestContext struct {
	core   *usecase.CoreUseCase
	donors map[string]int64
	err    error
}

func (c *bloodBankTestContext) reset() error {
	store, err := memory.NewStore(nil)
	if err != nil {
		return err
	}
	c.core = usecase.NewCoreUseCase(store, store, usecase.WithClock(func() time.Time {
		return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	}))
	c.donors = make(map[string]int64)
	c.err = nil
	return nil
}

func (c *bloodBankTestContext) theStockOfStartsAt(group string, units int) error {
	g, err := domain.ParseBloodGroup(group)
	if err != nil {
		return err
	}
	current, _, err := c.core.Ledger().GetUnits(context.Background(), g)
	if err != nil {
		return err
	}
	if diff := int64(units) - current; diff > 0 {
		return c.core.Ledger().Credit(context.Background(), g, diff)
	}
	return nil
}

func (c *bloodBankTestContext) aDonorWithBloodGroupAndContact(name, group, contact string) error {
	g, err := domain.ParseBloodGroup(group)
	if err != nil {
		return err
	}
	id, err := c.core.Journal().RegisterDonor(context.Background(), name, g, contact, time.Time{})
	if err != nil {
		return err
	}
	c.donors[name] = id
	return nil
}

func (c *bloodBankTestContext) thereIsNoStockOf(group string) error {
	_, found, err := c.core.Ledger().GetUnits(context.Background(), domain.BloodGroup(group))
	if err != nil {
		return err
	}
	if found {
		return fmt.Errorf("expected no stock row for %s", group)
	}
	return nil
}

func (c *bloodBankTestContext) requestsUnitsOf(name string, units int, group string) error {
	_, c.err = c.core.Request(context.Background(), usecase.RequestCommand{
		Requester:  name,
		BloodGroup: domain.BloodGroup(group),
		Units:      int64(units),
	})
	return nil
}

func (c *bloodBankTestContext) donatesUnits(name string, units int) error {
	id, ok := c.donors[name]
	if !ok {
		return fmt.Errorf("unknown donor %q", name)
	}
	_, c.err = c.core.Donate(context.Background(), usecase.DonateCommand{DonorID: id, Units: int64(units)})
	return nil
}

func (c *bloodBankTestContext) theDonorIsDeleted(name string) error {
	deleted, err := c.core.Journal().DeleteDonor(context.Background(), c.donors[name])
	if err != nil {
		return err
	}
	if !deleted {
		return fmt.Errorf("donor %q was not deleted", name)
	}
	return nil
}

func (c *bloodBankTestContext) theOperationSucceeds() error {
	if c.err != nil {
		return fmt.Errorf("expected success but got error: %v", c.err)
	}
	return nil
}

func (c *bloodBankTestContext) theRequestFailsWith(reason string) error {
	expected := map[string]error{
		"insufficient stock":  domain.ErrInsufficientStock,
		"unknown blood group": domain.ErrUnknownBloodGroup,
		"invalid quantity":    domain.ErrInvalidQuantity,
	}[reason]
	if expected == nil {
		return fmt.Errorf("unknown failure reason %q", reason)
	}
	if !errors.Is(c.err, expected) {
		return fmt.Errorf("expected %v, got %v", expected, c.err)
	}
	return nil
}

func (c *bloodBankTestContext) theStockOfShouldBe(group string, units int) error {
	current, found, err := c.core.Ledger().GetUnits(context.Background(), domain.BloodGroup(group))
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("no stock row for %s", group)
	}
	if current != int64(units) {
		return fmt.Errorf("expected %d units of %s, got %d", units, group, current)
	}
	return nil
}

func (c *bloodBankTestContext) theHistoryHasEntries(n int) error {
	history, err := c.core.Journal().History(context.Background())
	if err != nil {
		return err
	}
	if len(history) != n {
		return fmt.Errorf("expected %d history entries, got %d", n, len(history))
	}
	return nil
}

func (c *bloodBankTestContext) theLatestEntryIs(typ, name string, units int, group string) error {
	history, err := c.core.Journal().History(context.Background())
	if err != nil {
		return err
	}
	if len(history) == 0 {
		return errors.New("history is empty")
	}
	latest := history[0]
	if latest.Type.String() != typ || latest.Name != name || latest.Units != int64(units) || latest.BloodGroup.String() != group {
		return fmt.Errorf("unexpected latest entry: %+v", latest)
	}
	return nil
}

func (c *bloodBankTestContext) theDonorIsNotListed(name string) error {
	donors, err := c.core.Journal().ListAllDonors(context.Background())
	if err != nil {
		return err
	}
	for _, d := range donors {
		if d.Name == name {
			return fmt.Errorf("donor %q still listed", name)
		}
	}
	return nil
}

func InitializeScenario(ctx *godog.ScenarioContext) {
	tc := &bloodBankTestContext{}

	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		return ctx, tc.reset()
	})

	// Given steps
	ctx.Step(`^the stock of "([^"]*)" starts at (\d+) units$`, tc.theStockOfStartsAt)
	ctx.Step(`^a donor "([^"]*)" with blood group "([^"]*)" and contact "([^"]*)"$`, tc.aDonorWithBloodGroupAndContact)
	ctx.Step(`^there is no stock of "([^"]*)"$`, tc.thereIsNoStockOf)

	// When steps
	ctx.Step(`^"([^"]*)" requests (-?\d+) units of "([^"]*)"$`, tc.requestsUnitsOf)
	ctx.Step(`^"([^"]*)" donates (\d+) units$`, tc.donatesUnits)
	ctx.Step(`^the donor "([^"]*)" is deleted$`, tc.theDonorIsDeleted)

	// Then steps
	ctx.Step(`^the (?:request|donation) succeeds$`, tc.theOperationSucceeds)
	ctx.Step(`^the request fails with "([^"]*)"$`, tc.theRequestFailsWith)
	ctx.Step(`^the stock of "([^"]*)" is (\d+) units$`, tc.theStockOfShouldBe)
	ctx.Step(`^the history has (\d+) entr(?:y|ies)$`, tc.theHistoryHasEntries)
	ctx.Step(`^the latest entry is a (DONATION|REQUEST) by "([^"]*)" for (\d+) units of "([^"]*)"$`, tc.theLatestEntryIs)
	ctx.Step(`^the donor "([^"]*)" is not listed$`, tc.theDonorIsNotListed)
}

func TestFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: InitializeScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"bloodbank.feature"},
			TestingT: t,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
