package commission

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func testBase() Base {
	return Base{
		Gross:        dec("1000"),
		Expenses:     dec("100"),
		Displacement: dec("50"),
		Products:     dec("400"),
		Services:     dec("550"),
		Cost:         dec("200"),
		ItemsCount:   3,
	}
}

func TestRule_Calculate(t *testing.T) {
	tests := []struct {
		calc CalculationType
		want string
	}{
		{CalcPercentGross, "100.00"},
		{CalcPercentNet, "90.00"},
		{CalcPercentGrossMinusDisplacement, "95.00"},
		{CalcPercentServicesOnly, "55.00"},
		{CalcPercentProductsOnly, "40.00"},
		{CalcPercentProfit, "80.00"},
		{CalcPercentGrossMinusExpenses, "90.00"},
		{CalcFixedPerOS, "10.00"},
		{CalcFixedPerItem, "30.00"},
	}
	for _, tt := range tests {
		t.Run(string(tt.calc), func(t *testing.T) {
			r := &Rule{CalculationType: tt.calc, Value: dec("10")}
			assert.Equal(t, tt.want, r.Calculate(testBase()).StringFixed(2))
		})
	}
}

func TestRule_CalculateRoundsAndClamps(t *testing.T) {
	r := &Rule{CalculationType: CalcPercentGross, Value: dec("3.333")}
	assert.Equal(t, "33.33", r.Calculate(testBase()).StringFixed(2))

	net := &Rule{CalculationType: CalcPercentNet, Value: dec("10")}
	b := testBase()
	b.Expenses = dec("5000")
	assert.True(t, net.Calculate(b).IsZero())
}

func TestBase_NetIgnoresItemCost(t *testing.T) {
	b := Base{Gross: dec("1000"), Expenses: dec("100"), Cost: dec("300")}
	assert.Equal(t, "900", b.Net().String())

	net := &Rule{CalculationType: CalcPercentNet, Value: dec("10")}
	assert.Equal(t, "90.00", net.Calculate(b).StringFixed(2))

	profit := &Rule{CalculationType: CalcPercentProfit, Value: dec("10")}
	assert.Equal(t, "70.00", profit.Calculate(b).StringFixed(2))
}

func TestRule_Tiered(t *testing.T) {
	upTo500 := dec("500")
	upTo800 := dec("800")
	r := &Rule{
		CalculationType: CalcTieredGross,
		Tiers: []Tier{
			{Percent: dec("10")},
			{UpTo: &upTo800, Percent: dec("7")},
			{UpTo: &upTo500, Percent: dec("5")},
		},
	}
	// 500×5% + 300×7% + 200×10% = 25 + 21 + 20
	assert.Equal(t, "66.00", r.Calculate(testBase()).StringFixed(2))

	small := testBase()
	small.Gross = dec("200")
	assert.Equal(t, "10.00", r.Calculate(small).StringFixed(2))
}

func TestRule_CustomFormula(t *testing.T) {
	t.Run("evaluates variables", func(t *testing.T) {
		r := &Rule{CalculationType: CalcCustomFormula, Value: dec("10"), Formula: "(services - cost) * percent / 100 + 5"}
		assert.Equal(t, "40.00", r.Calculate(testBase()).StringFixed(2))
	})

	t.Run("division by zero is zero", func(t *testing.T) {
		r := &Rule{CalculationType: CalcCustomFormula, Formula: "gross / (cost - cost)"}
		assert.True(t, r.Calculate(testBase()).IsZero())
	})

	t.Run("negative result clamps to zero", func(t *testing.T) {
		r := &Rule{CalculationType: CalcCustomFormula, Formula: "-gross"}
		assert.True(t, r.Calculate(testBase()).IsZero())
	})

	t.Run("invalid formula falls back to percent of gross", func(t *testing.T) {
		r := &Rule{CalculationType: CalcCustomFormula, Value: dec("10"), Formula: "gross +* 2"}
		assert.Equal(t, "100.00", r.Calculate(testBase()).StringFixed(2))
	})

	t.Run("unknown variables are rejected", func(t *testing.T) {
		assert.Error(t, ValidateFormula("salary * 2"))
		assert.Error(t, ValidateFormula("(gross"))
		assert.NoError(t, ValidateFormula("-(gross - net) * 0.5"))
	})
}

func TestNewRule_Validation(t *testing.T) {
	tenant := uuid.New()
	_, err := NewRule(tenant, "", CalcPercentGross, dec("10"), RoleTechnician, TriggerOSCompleted)
	assert.Error(t, err)
	_, err = NewRule(tenant, "x", CalcPercentGross, dec("150"), RoleTechnician, TriggerOSCompleted)
	assert.Error(t, err)
	_, err = NewRule(tenant, "x", CalcFixedPerOS, dec("150"), RoleTechnician, TriggerOSCompleted)
	assert.NoError(t, err)
	_, err = NewRule(tenant, "x", CalcTieredGross, dec("0"), RoleTechnician, TriggerOSCompleted)
	assert.Error(t, err, "tiered rule needs tiers")
	_, err = NewRule(tenant, "x", CalcPercentGross, dec("10"), Role("manager"), TriggerOSCompleted)
	assert.Error(t, err)

	r, err := NewRule(tenant, "Tech 10%", CalcPercentGross, dec("10"), RoleTechnician, TriggerOSCompleted)
	require.NoError(t, err)
	assert.True(t, r.Active)
}

func TestRule_Matches(t *testing.T) {
	user := uuid.New()
	r := &Rule{Active: true, AppliesToRole: RoleSeller, AppliesWhen: TriggerOSInvoiced}
	assert.True(t, r.Matches(user, RoleSeller, TriggerOSInvoiced))
	assert.False(t, r.Matches(user, RoleTechnician, TriggerOSInvoiced))
	assert.False(t, r.Matches(user, RoleSeller, TriggerOSCompleted))

	other := uuid.New()
	r.UserID = &other
	assert.False(t, r.Matches(user, RoleSeller, TriggerOSInvoiced))

	r.UserID = nil
	r.Active = false
	assert.False(t, r.Matches(user, RoleSeller, TriggerOSInvoiced))
}
