package extractkit_test

import (
	"context"
	"errors"
	"fmt"

	"github.com/vivaneiona/extractkit"
)

func ExampleExtractor_Extract() {
	schema := extractkit.NewSchemaBuilder().
		String("leave_time", "When they are leaving").
		String("leave_from", "Where they are leaving from").
		StringList("cities_to_visit", "Cities they will visit").
		MustBuild()

	x := extractkit.NewForTesting(map[string]any{
		"leave_from":      "Denver, Colorado",
		"cities_to_visit": []any{"Amsterdam", "Brussels"},
	})

	res, err := x.Extract(context.Background(), "We're leaving Denver for Amsterdam and Brussels.", schema)
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println(res.String("leave_time"))
	fmt.Println(res.Strings("cities_to_visit"))
	fmt.Println(res.Missing())
	// Output:
	// unknown
	// [Amsterdam Brussels]
	// [leave_time]
}

func ExampleValidationError() {
	schema := extractkit.NewSchemaBuilder().
		Integer("num_people", "The number of people on the vacation", extractkit.Positive()).
		MustBuild()

	x := extractkit.NewForTesting(map[string]any{"num_people": 0})

	_, err := x.Extract(context.Background(), "Nobody is coming.", schema)
	var ve *extractkit.ValidationError
	if errors.As(err, &ve) {
		fmt.Println(ve.Field, ve.Rule)
	}
	// Output: num_people positive
}
