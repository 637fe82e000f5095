package siterules

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/formsense/formsense/models"
)

// builtinRules is the shipped rule table for well-known domains, matched by
// hostname substring in declaration order. User custom rules always take
// precedence over these.
const builtinRules = `
- pattern: amazon.
  skip_fields:
    - input[name="cvv"]
    - input[id*="captcha"]
  delays:
    between_fields: 150
    before_fill: 500
  checkout:
    steps:
      - name: address
        url_pattern: /checkout/address
        fields:
          input[name="enterAddressFullName"]: {type: fullName}
          input[name="enterAddressAddressLine1"]: {type: street}
          input[name="enterAddressCity"]: {type: city}
          input[name="enterAddressStateOrRegion"]: {type: state}
          input[name="enterAddressPostalCode"]: {type: zip}
          input[name="enterAddressPhoneNumber"]: {type: phone}
        wait_after: 1000
      - name: payment
        url_pattern: /checkout/payment
        fields:
          input[name="addCreditCardNumber"]: {type: cardNumber, sensitive: true}
          input[name="ppw-expirationDate"]: {type: expiryDate, sensitive: true}
        skip_fields:
          - input[name="cvv"]
        wait_after: 1500

- pattern: google.
  skip_fields:
    - input[type="password"]
  delays:
    between_fields: 100
  fields:
    input[name="firstName"]: {type: firstName}
    input[name="lastName"]: {type: lastName}

- pattern: chase.
  security:
    max_fields: 3
    allowed_fields: [firstName, lastName, email]
    restricted_fields: [password, ssn, cardNumber, cvv]
  handlers:
    before_fill: checkCaptcha
  delays:
    before_fill: 1000

- pattern: bankofamerica.
  security:
    max_fields: 3
    allowed_fields: [firstName, lastName, email, phone]
    restricted_fields: [password, ssn, cardNumber, cvv]
  handlers:
    before_fill: checkCaptcha

- pattern: wellsfargo.
  security:
    max_fields: 2
    allowed_fields: [firstName, lastName]
    restricted_fields: [password, ssn, cardNumber, cvv]
  handlers:
    before_fill: checkCaptcha

- pattern: linkedin.
  fields:
    input[id="single-line-text-form-component-firstName"]: {type: firstName}
    input[id="single-line-text-form-component-lastName"]: {type: lastName}
  skip_fields:
    - input[type="password"]

- pattern: indeed.
  fields:
    input[name="applicant.name"]: {type: fullName}
    input[name="applicant.email"]: {type: email}
    input[name="applicant.phoneNumber"]: {type: phone}

- pattern: myshopify.
  delays:
    between_fields: 100
  fields:
    input[name="checkout[email]"]: {type: email}
    input[name="checkout[shipping_address][first_name]"]: {type: firstName}
    input[name="checkout[shipping_address][last_name]"]: {type: lastName}
    input[name="checkout[shipping_address][address1]"]: {type: street}
    input[name="checkout[shipping_address][city]"]: {type: city}
    input[name="checkout[shipping_address][zip]"]: {type: zip}
`

// BuiltinRules parses the shipped rule table.
func BuiltinRules() ([]models.SiteRule, error) {
	var rules []models.SiteRule
	if err := yaml.Unmarshal([]byte(builtinRules), &rules); err != nil {
		return nil, fmt.Errorf("failed to parse built-in site rules: %w", err)
	}
	return rules, nil
}
