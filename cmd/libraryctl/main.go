// libraryctl is a thin command-line client for the reservation API.
package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

var serverURL string

func main() {
	root := &cobra.Command{
		Use:           "libraryctl",
		Short:         "Client for the library reservation service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:8080", "base URL of the reservation API")

	root.AddCommand(
		newBooksCmd(),
		newAddBookCmd(),
		newMakeReservationCmd(),
		newViewReservationCmd(),
		newUpdateReservationCmd(),
		newListReservationsCmd(),
		newClearCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newBooksCmd() *cobra.Command {
	var onlyAvailable bool
	cmd := &cobra.Command{
		Use:   "books",
		Short: "List books in the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client := newClient(serverURL)
			books, err := client.listBooks(cmd.Context(), onlyAvailable)
			if err != nil {
				return err
			}
			if len(books) == 0 {
				fmt.Println("no books")
				return nil
			}
			for _, b := range books {
				state := "available"
				if b.ReservationID != "" {
					state = "reserved (" + b.ReservationID + ")"
				}
				fmt.Printf("%d\t%s\t%s\t%s\n", b.BookID, b.Title, b.Author, state)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&onlyAvailable, "only-available", false, "show only books without a live reservation")
	return cmd
}

func newAddBookCmd() *cobra.Command {
	var bookID int
	cmd := &cobra.Command{
		Use:   "add-book <title> <author>",
		Short: "Add a book to the catalog",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := newClient(serverURL)
			book, err := client.addBook(cmd.Context(), bookID, args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Printf("added book %d: %s by %s\n", book.BookID, book.Title, book.Author)
			return nil
		},
	}
	cmd.Flags().IntVar(&bookID, "book-id", 0, "explicit book id (default: assign next free id)")
	return cmd
}

func newMakeReservationCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "make-reservation <customer_id> <book_id>",
		Short: "Reserve a book for a customer",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			customerID, bookID, err := parseIDs(args[0], args[1])
			if err != nil {
				return err
			}
			client := newClient(serverURL)
			reservationID, err := client.makeReservation(cmd.Context(), bookID, customerID)
			if err != nil {
				return err
			}
			fmt.Printf("created reservation %s\n", reservationID)
			return nil
		},
	}
}

func newViewReservationCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "view-reservation <book_id>",
		Short: "Show the reservation for a book",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bookID, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("book_id must be an integer: %w", err)
			}
			client := newClient(serverURL)
			res, err := client.viewReservation(cmd.Context(), bookID)
			if err != nil {
				return err
			}
			printReservation(res)
			return nil
		},
	}
}

func newUpdateReservationCmd() *cobra.Command {
	var date int64
	cmd := &cobra.Command{
		Use:   "update-reservation <customer_id> <book_id>",
		Short: "Advance a reservation's date",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			customerID, bookID, err := parseIDs(args[0], args[1])
			if err != nil {
				return err
			}
			client := newClient(serverURL)
			newDate, err := client.updateReservation(cmd.Context(), bookID, customerID, date)
			if err != nil {
				return err
			}
			fmt.Printf("reservation date is now %s\n", formatMillis(newDate))
			return nil
		},
	}
	cmd.Flags().Int64Var(&date, "date", 0, "new reservation date in ms since epoch (default: server now)")
	return cmd
}

func newListReservationsCmd() *cobra.Command {
	var customerID int
	cmd := &cobra.Command{
		Use:   "list-reservations",
		Short: "List reservations, optionally for one customer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client := newClient(serverURL)
			var filter *int
			if cmd.Flags().Changed("customer-id") {
				filter = &customerID
			}
			reservations, err := client.listReservations(cmd.Context(), filter)
			if err != nil {
				return err
			}
			if len(reservations) == 0 {
				fmt.Println("no reservations")
				return nil
			}
			for _, res := range reservations {
				printReservation(res)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&customerID, "customer-id", 0, "restrict to one customer")
	return cmd
}

func newClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Clear every reservation view (administrative)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client := newClient(serverURL)
			if err := client.clear(cmd.Context()); err != nil {
				return err
			}
			fmt.Println("cleared")
			return nil
		},
	}
}

func parseIDs(customer, book string) (customerID, bookID int, err error) {
	customerID, err = strconv.Atoi(customer)
	if err != nil {
		return 0, 0, fmt.Errorf("customer_id must be an integer: %w", err)
	}
	bookID, err = strconv.Atoi(book)
	if err != nil {
		return 0, 0, fmt.Errorf("book_id must be an integer: %w", err)
	}
	return customerID, bookID, nil
}

func printReservation(res reservation) {
	fmt.Printf("book %d\tcustomer %d\t%s\t%s\n",
		res.BookID, res.CustomerID, res.ReservationID, formatMillis(res.ReservationDate))
}

func formatMillis(ms int64) string {
	return time.UnixMilli(ms).UTC().Format(time.RFC3339)
}
