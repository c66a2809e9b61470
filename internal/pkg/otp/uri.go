package otp

import (
	"net/url"
	"strconv"

	"github.com/pquerna/otp"
)

// Provision holds the account parameters embedded in a provisioning URI.
type Provision struct {
	// Issuer is the organization name shown by the authenticator app.
	Issuer string
	// AccountName identifies the account, commonly an email or username.
	AccountName string
	// Secret is the shared base32 secret.
	Secret string
	// Digits is the code length the record was created with.
	Digits otp.Digits
}

// HOTPProvisioningURI formats an otpauth:// URI for a counter-based record.
func HOTPProvisioningURI(p Provision, counter uint64) string {
	v := baseValues(p)
	v.Set("counter", strconv.FormatUint(counter, 10))

	return buildURI("hotp", p, v)
}

// TOTPProvisioningURI formats an otpauth:// URI for a time-based record.
func TOTPProvisioningURI(p Provision, interval uint) string {
	v := baseValues(p)
	v.Set("period", strconv.FormatUint(uint64(interval), 10))

	return buildURI("totp", p, v)
}

func baseValues(p Provision) url.Values {
	v := url.Values{}
	v.Set("secret", p.Secret)
	if p.Issuer != "" {
		v.Set("issuer", p.Issuer)
	}
	if p.Digits == otp.DigitsEight {
		v.Set("digits", p.Digits.String())
	}

	return v
}

func buildURI(kind string, p Provision, v url.Values) string {
	label := p.AccountName
	if p.Issuer != "" {
		label = p.Issuer + ":" + p.AccountName
	}

	u := url.URL{
		Scheme:   "otpauth",
		Host:     kind,
		Path:     "/" + label,
		RawQuery: v.Encode(),
	}

	return u.String()
}
