package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// client wraps the service's JSON HTTP surface.
type client struct {
	baseURL string
	http    *http.Client
}

func newClient(baseURL string) *client {
	return &client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

type reservation struct {
	ReservationID   string `json:"reservation_id"`
	BookID          int    `json:"book_id"`
	CustomerID      int    `json:"customer_id"`
	ReservationDate int64  `json:"reservation_date"`
}

type book struct {
	BookID        int    `json:"book_id"`
	Title         string `json:"title"`
	Author        string `json:"author"`
	ReservationID string `json:"reservation_id"`
}

func (c *client) listBooks(ctx context.Context, onlyAvailable bool) ([]book, error) {
	query := url.Values{}
	if onlyAvailable {
		query.Set("only_available", "true")
	}
	var resp struct {
		Books []book `json:"books"`
	}
	if err := c.get(ctx, "/books", query, &resp); err != nil {
		return nil, err
	}
	return resp.Books, nil
}

func (c *client) addBook(ctx context.Context, bookID int, title, author string) (book, error) {
	req := map[string]interface{}{"title": title, "author": author}
	if bookID != 0 {
		req["book_id"] = bookID
	}
	var resp book
	if err := c.post(ctx, "/books", req, &resp); err != nil {
		return book{}, err
	}
	return resp, nil
}

func (c *client) makeReservation(ctx context.Context, bookID, customerID int) (string, error) {
	req := map[string]interface{}{"book_id": bookID, "customer_id": customerID}
	var resp struct {
		Status        string `json:"status"`
		ReservationID string `json:"reservation_id"`
	}
	if err := c.post(ctx, "/make_reservation", req, &resp); err != nil {
		return "", err
	}
	return resp.ReservationID, nil
}

func (c *client) viewReservation(ctx context.Context, bookID int) (reservation, error) {
	query := url.Values{}
	query.Set("book_id", strconv.Itoa(bookID))
	var resp reservation
	if err := c.get(ctx, "/view_reservation", query, &resp); err != nil {
		return reservation{}, err
	}
	return resp, nil
}

func (c *client) updateReservation(ctx context.Context, bookID, customerID int, date int64) (int64, error) {
	req := map[string]interface{}{"book_id": bookID, "customer_id": customerID}
	if date != 0 {
		req["reservation_date"] = date
	}
	var resp struct {
		ReservationDate int64 `json:"reservation_date"`
	}
	if err := c.post(ctx, "/update_reservation", req, &resp); err != nil {
		return 0, err
	}
	return resp.ReservationDate, nil
}

func (c *client) listReservations(ctx context.Context, customerID *int) ([]reservation, error) {
	query := url.Values{}
	if customerID != nil {
		query.Set("customer_id", strconv.Itoa(*customerID))
	}
	var resp struct {
		Reservations []reservation `json:"reservations"`
	}
	if err := c.get(ctx, "/list_reservations", query, &resp); err != nil {
		return nil, err
	}
	return resp.Reservations, nil
}

func (c *client) clear(ctx context.Context) error {
	return c.post(ctx, "/clear", nil, nil)
}

func (c *client) get(ctx context.Context, path string, query url.Values, out interface{}) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *client) post(ctx context.Context, path string, body, out interface{}) error {
	var reader io.Reader = http.NoBody
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *client) do(req *http.Request, out interface{}) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var apiErr struct {
			Error string `json:"error"`
			Code  string `json:"code"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Error != "" {
			return fmt.Errorf("%s (%s)", apiErr.Error, apiErr.Code)
		}
		return fmt.Errorf("request failed with status %d", resp.StatusCode)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
