package notify

import (
	"fmt"
	"strings"

	"github.com/learnhub/seminarbook/services/booking-service/internal/model"
)

func adminCaption(b model.Booking) string {
	return fmt.Sprintf("New seminar booking\n\nName: %s\nEmail: %s\nPhone: %s\nCity: %s\nCountry: %s\nDate: %s\nTime: %s\nBooking ID: %s",
		b.FullName, b.Email, b.PhoneNumber, b.City, b.Country, b.DateString(), b.TimeSlot, b.ID)
}

func userCaption(brand string, b model.Booking) string {
	return fmt.Sprintf("Hi %s, thank you for booking a seminar with %s!\n\nDate: %s\nTime: %s\nCity: %s\n\nOur team will contact you shortly to confirm your slot.",
		firstName(b.FullName), brand, b.DateString(), b.TimeSlot, b.City)
}

// fallbackText is the plain-text rendition of an image message.
func fallbackText(caption, imageURL string) string {
	if imageURL == "" {
		return caption
	}
	return caption + "\n\n" + imageURL
}

func firstName(full string) string {
	if fields := strings.Fields(full); len(fields) > 0 {
		return fields[0]
	}
	return full
}
