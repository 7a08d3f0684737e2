package rfctime_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/ai-field-tools/iris-api/pkg/utils/rfctime"
)

func TestRFC3339(t *testing.T) {
	t.Run("it marshals with an explicit offset, never Z", func(t *testing.T) {
		timestamp := rfctime.New(time.Date(
			2024, 10, 30, 12, 34, 56, 987_000_000,
			time.UTC,
		))

		b, err := json.Marshal(timestamp)
		if err != nil {
			t.Fatal(err)
		}

		expected := `"2024-10-30T12:34:56.987+00:00"`
		if string(b) != expected {
			t.Errorf("marshalled expression is wrong. (actual, expected) = (%s, %s)", b, expected)
		}
	})

	t.Run("it unmarshals both Z and offset forms to the same instant", func(t *testing.T) {
		var a, b rfctime.RFC3339
		if err := json.Unmarshal([]byte(`"2024-10-30T12:34:56.987Z"`), &a); err != nil {
			t.Fatal(err)
		}
		if err := json.Unmarshal([]byte(`"2024-10-30T21:34:56.987+09:00"`), &b); err != nil {
			t.Fatal(err)
		}
		if !a.Equal(b) {
			t.Errorf("timestamps are not equal. (a, b) = (%s, %s)", a, b)
		}
	})

	t.Run("null is left as zero value", func(t *testing.T) {
		var ts rfctime.RFC3339
		if err := json.Unmarshal([]byte(`null`), &ts); err != nil {
			t.Fatal(err)
		}
		if !ts.Time().IsZero() {
			t.Errorf("timestamp should stay zero: %s", ts)
		}
	})

	t.Run("broken expression causes error", func(t *testing.T) {
		var ts rfctime.RFC3339
		if err := json.Unmarshal([]byte(`"12 o'clock"`), &ts); err == nil {
			t.Error("error should be raised, but not")
		}
	})
}

func TestParseLooseRFC3339(t *testing.T) {
	for name, testcase := range map[string]struct {
		input string
		then  time.Time
	}{
		"full form": {
			input: "2024-10-30T12:34:56.987+00:00",
			then:  time.Date(2024, 10, 30, 12, 34, 56, 987_000_000, time.UTC),
		},
		"seconds resolution with offset": {
			input: "2024-10-30T12:34:56+00:00",
			then:  time.Date(2024, 10, 30, 12, 34, 56, 0, time.UTC),
		},
		"minutes resolution with offset": {
			input: "2024-10-30T12:34+00:00",
			then:  time.Date(2024, 10, 30, 12, 34, 0, 0, time.UTC),
		},
		"space separated": {
			input: "2024-10-30 12:34:56+00:00",
			then:  time.Date(2024, 10, 30, 12, 34, 56, 0, time.UTC),
		},
		"date only with offset": {
			input: "2024-10-30Z",
			then:  time.Date(2024, 10, 30, 0, 0, 0, 0, time.UTC),
		},
	} {
		testcase := testcase
		t.Run(name, func(t *testing.T) {
			actual, err := rfctime.ParseLooseRFC3339(testcase.input)
			if err != nil {
				t.Fatal(err)
			}
			if !actual.Time().Equal(testcase.then) {
				t.Errorf(
					"parsed time is wrong. (actual, expected) = (%s, %s)",
					actual.Time(), testcase.then,
				)
			}
		})
	}

	t.Run("garbage causes error", func(t *testing.T) {
		if _, err := rfctime.ParseLooseRFC3339("yesterday"); err == nil {
			t.Error("error should be raised, but not")
		}
	})
}
