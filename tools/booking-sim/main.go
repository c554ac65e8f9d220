package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/learnhub/seminarbook/libs/config"
)

func main() {
	tomorrow := time.Now().AddDate(0, 0, 1).Format("2006-01-02")
	var (
		baseURL = flag.String("base-url", config.String("BASE_URL", "http://localhost:8083"), "booking service base url")
		name    = flag.String("name", config.String("BOOKING_NAME", "Test Student"), "full name")
		email   = flag.String("email", config.String("BOOKING_EMAIL", ""), "email (default: unique per run)")
		phone   = flag.String("phone", config.String("BOOKING_PHONE", "+91 98765 43210"), "phone number")
		city    = flag.String("city", config.String("BOOKING_CITY", "Pune"), "city")
		country = flag.String("country", config.String("BOOKING_COUNTRY", "India"), "country")
		date    = flag.String("date", config.String("BOOKING_DATE", tomorrow), "seminar date (YYYY-MM-DD)")
		slot    = flag.String("time", config.String("BOOKING_TIME", "10:00 AM"), "time slot label")
		repeat  = flag.Int("repeat", 1, "submit the same booking n times (duplicates expect 409)")
	)
	flag.Parse()

	if strings.TrimSpace(*email) == "" {
		*email = fmt.Sprintf("student+%d@example.com", time.Now().UnixNano())
	}

	payload, err := json.Marshal(map[string]string{
		"fullName":    *name,
		"email":       *email,
		"phoneNumber": *phone,
		"city":        *city,
		"country":     *country,
		"date":        *date,
		"time":        *slot,
	})
	if err != nil {
		fatal(err.Error())
	}

	client := &http.Client{Timeout: 60 * time.Second}
	url := strings.TrimRight(*baseURL, "/") + "/book"
	for i := 0; i < *repeat; i++ {
		resp, err := client.Post(url, "application/json", bytes.NewReader(payload))
		if err != nil {
			fatal(err.Error())
		}
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		fmt.Printf("status=%d body=%s\n", resp.StatusCode, strings.TrimSpace(string(body)))
	}
}

func fatal(msg string) {
	fmt.Fprintln(os.Stderr, msg)
	os.Exit(2)
}
