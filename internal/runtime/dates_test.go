package runtime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

func TestDate_LeapYearBug(t *testing.T) {
	t.Parallel()
	env := DefaultEnvironment()

	assert.Equal(t, 1.0, env.Date(1900, 1, 1))
	assert.Equal(t, 61.0, env.Date(1900, 3, 1))
	assert.Equal(t, 39448.0, env.Date(2008, 1, 1))
	assert.Equal(t, 39448.0, env.Date(108, 1, 1), "years below 1899 are offset by 1900")
	assert.Equal(t, 39507.0, env.Date(2008, 1, 60), "days roll over into the next month")

	// Serial 60 is the phantom 1900-02-29; both it and 61 land on March 1st.
	for _, serial := range []float64{60, 61} {
		assert.Equal(t, 3, env.Month(serial))
		assert.Equal(t, 1, env.Day(serial))
	}
	assert.Equal(t, 2, env.Month(59))
	assert.Equal(t, 28, env.Day(59))
	assert.Equal(t, 2008, env.Year(39448))
}

func TestDate_OpenOfficeHasNoPhantomDay(t *testing.T) {
	t.Parallel()
	env := NewEnvironment(language.AmericanEnglish, time.UTC, OpenOfficeCalc)

	assert.Equal(t, 2.0, env.Date(1900, 1, 1))
	assert.Equal(t, 61.0, env.Date(1900, 3, 1))
	assert.Equal(t, 39448.0, env.Date(2008, 1, 1))
}

func TestTime_WrapsOnlyInExcelMode(t *testing.T) {
	t.Parallel()

	excel := DefaultEnvironment()
	ooo := NewEnvironment(language.AmericanEnglish, time.UTC, OpenOfficeCalc)

	assert.Equal(t, 0.5, excel.Time(12, 0, 0))
	assert.InDelta(t, 1.0/24, excel.Time(25, 0, 0), 1e-12)
	assert.InDelta(t, 25.0/24, ooo.Time(25, 0, 0), 1e-12)

	assert.Equal(t, 18, Hour(0.75))
	assert.Equal(t, 30, Minute(0.5+30.0/1440))
	assert.Equal(t, 15, Second(15.0/86400))
}

func TestWeekday(t *testing.T) {
	t.Parallel()
	env := DefaultEnvironment()
	thursday := env.Date(2008, 2, 14)

	for typ, want := range map[int]int{1: 5, 2: 4, 3: 3} {
		got, err := env.Weekday(thursday, typ)
		require.NoError(t, err)
		assert.Equal(t, want, got, "type %d", typ)
	}
	_, err := env.Weekday(thursday, 4)
	assert.True(t, IsLegacyZero(err))
}

func TestDays360(t *testing.T) {
	t.Parallel()
	env := DefaultEnvironment()

	assert.Equal(t, 1.0, env.Days360(env.Date(2008, 1, 30), env.Date(2008, 2, 1), false))
	assert.Equal(t, 30.0, env.Days360(env.Date(2008, 2, 29), env.Date(2008, 3, 31), false))
	assert.Equal(t, 31.0, env.Days360(env.Date(2008, 2, 29), env.Date(2008, 3, 31), true))
}

func TestClock_IsInjected(t *testing.T) {
	t.Parallel()
	fixed := time.Date(2024, 2, 29, 12, 0, 0, 0, time.UTC)
	env := DefaultEnvironment().WithClock(func() time.Time { return fixed })

	assert.Equal(t, 45351.5, env.NowSerial())
	assert.Equal(t, 45351.0, env.Today())
	assert.True(t, fixed.Equal(env.TimeFromSerial(45351.5)))
}

func TestDateValue_Locales(t *testing.T) {
	t.Parallel()

	cases := []struct {
		locale language.Tag
		text   string
		want   float64
	}{
		{language.AmericanEnglish, "12/31/2020", 44196},
		{language.AmericanEnglish, "2020-12-31", 44196},
		{language.BritishEnglish, "31/12/2020", 44196},
		{language.German, "31.12.2020", 44196},
		{language.AmericanEnglish, "1/1/29", 47119},
		{language.AmericanEnglish, "1/1/30", 10959},
		{language.AmericanEnglish, "12/31/2020 18:00", 44196},
	}
	for _, tc := range cases {
		t.Run(tc.locale.String()+" "+tc.text, func(t *testing.T) {
			t.Parallel()
			env := NewEnvironment(tc.locale, time.UTC, Excel)
			got, err := env.DateValue(tc.text)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}

	_, err := DefaultEnvironment().DateValue("not a date")
	require.Error(t, err)
	assert.False(t, IsLegacyZero(err))
}

func TestTimeValue(t *testing.T) {
	t.Parallel()
	env := DefaultEnvironment()

	v, err := env.TimeValue("6:45 PM")
	require.NoError(t, err)
	assert.InDelta(t, 0.78125, v, 1e-12)

	v, err = env.TimeValue("12/31/2020 06:00:00")
	require.NoError(t, err)
	assert.InDelta(t, 0.25, v, 1e-12)
}
