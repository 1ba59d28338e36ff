package services

import (
	"log"
)

// LogDelivery writes one-time codes to the server log. The delivery channel
// is out-of-band by contract: the lifecycle manager hands the code over and
// never learns whether it arrived. Swap this for an email sender without
// touching the manager.
type LogDelivery struct{}

func (LogDelivery) DeliverCode(email, code string) {
	log.Printf("📧 Verification code for %s: %s", email, code)
}
