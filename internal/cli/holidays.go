package cli

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"ratesync/internal/calendar"
)

// newHolidaysCmd creates an operator utility that prints the computed
// holiday set for a year.
func newHolidaysCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "holidays [year]",
		Short: "Print the non-trading holiday set for a year",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			year := time.Now().Year()
			if len(args) == 1 {
				parsed, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("invalid year: %s", args[0])
				}
				year = parsed
			}
			if year < 1900 || year > 2099 {
				return fmt.Errorf("year %d outside supported range 1900-2099", year)
			}

			holidays := calendar.RomanianHolidays(year)
			dates := make([]string, 0, len(holidays))
			for date := range holidays {
				dates = append(dates, date)
			}
			sort.Strings(dates)

			for _, date := range dates {
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n", date, holidays[date])
			}
			return nil
		},
	}
}
