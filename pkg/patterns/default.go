package patterns

import (
	"regexp"

	"github.com/formsense/formsense/models"
)

func res(sources ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(sources))
	for _, s := range sources {
		out = append(out, regexp.MustCompile(s))
	}
	return out
}

// Default returns the built-in pattern tables.
func Default() *Library {
	sets := map[models.FieldType]*PatternSet{
		models.FieldFirstName: {
			Exact: []string{"firstname", "first_name", "first-name", "given_name", "givenname", "given-name", "fname", "forename"},
			Fuzzy: res(`(?i)first.{0,5}name`, `(?i)given.{0,5}name`, `(?i)\bfore.?name\b`),
			Value: res(`(?i)^fn$`, `(?i)^f_?name$`),
		},
		models.FieldLastName: {
			Exact: []string{"lastname", "last_name", "last-name", "family_name", "familyname", "family-name", "lname", "surname"},
			Fuzzy: res(`(?i)last.{0,5}name`, `(?i)family.{0,5}name`, `(?i)\bsur.?name\b`),
			Value: res(`(?i)^ln$`, `(?i)^l_?name$`),
		},
		models.FieldFullName: {
			Exact: []string{"fullname", "full_name", "full-name", "your_name", "yourname", "complete_name"},
			Fuzzy: res(`(?i)full.{0,5}name`, `(?i)your.{0,5}name`, `(?i)^name$`, `(?i)complete.{0,5}name`),
			Value: res(`(?i)^name$`),
		},
		models.FieldEmail: {
			Exact: []string{"email", "e-mail", "e_mail", "emailaddress", "email_address", "email-address", "mail"},
			Fuzzy: res(`(?i)e.?mail`, `(?i)mail.{0,8}address`),
			Value: res(`@`, `(?i)^[\w.+-]+@[\w-]+\.\w{2,}$`, `(?i)you@|name@example`),
		},
		models.FieldPhone: {
			Exact: []string{"phone", "telephone", "mobile", "cell", "phonenumber", "phone_number", "phone-number", "tel"},
			Fuzzy: res(`(?i)phone.{0,8}number`, `(?i)\btele?phone\b`, `(?i)\b(mobile|cell)\b`, `(?i)contact.{0,5}number`),
			Value: res(`\(\d{3}\)`, `\d{3}[-.\s]\d{3}[-.\s]\d{4}`, `(?i)^\+?[\d\s()-]{7,}$`),
		},
		models.FieldStreet: {
			Exact: []string{"street", "address1", "address_1", "address-1", "addressline1", "address_line_1", "streetaddress", "street_address", "addr1"},
			Fuzzy: res(`(?i)street.{0,8}address`, `(?i)address.{0,5}line.{0,3}1`, `(?i)\baddress\b`, `(?i)\bstreet\b`),
			Value: res(`(?i)^\d+\s+\w+`, `(?i)123\s+main`),
		},
		models.FieldCity: {
			Exact: []string{"city", "town", "locality", "municipality"},
			Fuzzy: res(`(?i)\bcity\b`, `(?i)\btown\b`, `(?i)\blocality\b`),
			Value: nil,
		},
		models.FieldState: {
			Exact: []string{"state", "province", "region", "county"},
			Fuzzy: res(`(?i)\bstate\b`, `(?i)\bprovince\b`, `(?i)state.{0,3}province`),
			Value: res(`(?i)^st$`, `(?i)^[A-Z]{2}$`),
		},
		models.FieldZip: {
			Exact: []string{"zip", "zipcode", "zip_code", "zip-code", "postal", "postalcode", "postal_code", "postcode"},
			Fuzzy: res(`(?i)zip.{0,5}code`, `(?i)postal.{0,5}code`, `(?i)\bzip\b`, `(?i)\bpost.?code\b`),
			Value: res(`^\d{5}$`, `^\d{5}-\d{4}$`, `(?i)\b\d{5}\b`),
		},
		models.FieldCountry: {
			Exact: []string{"country", "nation", "country_code"},
			Fuzzy: res(`(?i)\bcountry\b`, `(?i)country.{0,5}region`),
			Value: nil,
		},
		models.FieldCardNumber: {
			Exact: []string{"cardnumber", "card_number", "card-number", "ccnumber", "cc_number", "creditcard", "credit_card", "credit-card", "pan"},
			Fuzzy: res(`(?i)card.{0,8}number`, `(?i)credit.{0,5}card`, `(?i)\bcc.?num`, `(?i)debit.{0,5}card`),
			Value: res(`\d{4}[\s-]?\d{4}[\s-]?\d{4}[\s-]?\d{4}`, `(?i)^\d{13,19}$`, `(?i)xxxx`),
		},
		models.FieldCVV: {
			Exact: []string{"cvv", "cvc", "cvv2", "cvc2", "securitycode", "security_code", "security-code", "cardverification"},
			Fuzzy: res(`(?i)\bcv[vc]2?\b`, `(?i)security.{0,5}code`, `(?i)card.{0,8}verification`),
			Value: res(`(?i)^\d{3,4}$`),
		},
		models.FieldExpiryDate: {
			Exact: []string{"expiry", "expiration", "exp_date", "exp-date", "expdate", "cardexpiry", "card_expiry", "validthru"},
			Fuzzy: res(`(?i)expir(y|ation|e)`, `(?i)\bexp.{0,5}date\b`, `(?i)valid.{0,5}(thru|through|until)`),
			Value: res(`(?i)^\d{2}\s*/\s*\d{2,4}$`, `(?i)mm\s*/\s*yy`),
		},
		models.FieldCompany: {
			Exact: []string{"company", "organization", "organisation", "employer", "company_name", "companyname", "business"},
			Fuzzy: res(`(?i)company.{0,5}name`, `(?i)\borgani[sz]ation\b`, `(?i)\bemployer\b`, `(?i)business.{0,5}name`),
			Value: nil,
		},
		models.FieldJobTitle: {
			Exact: []string{"jobtitle", "job_title", "job-title", "position", "occupation", "role", "designation"},
			Fuzzy: res(`(?i)job.{0,5}title`, `(?i)\boccupation\b`, `(?i)current.{0,5}(position|role)`, `(?i)\bdesignation\b`),
			Value: nil,
		},
		models.FieldWebsite: {
			Exact: []string{"website", "web_site", "homepage", "url", "portfolio", "personal_site"},
			Fuzzy: res(`(?i)web.?site`, `(?i)\bhome.?page\b`, `(?i)personal.{0,5}(site|url)`, `(?i)portfolio`),
			Value: res(`(?i)^https?://`, `(?i)www\.`),
		},
		models.FieldLinkedin: {
			Exact: []string{"linkedin", "linked_in", "linked-in", "linkedinurl", "linkedin_url"},
			Fuzzy: res(`(?i)linked.?in`),
			Value: res(`(?i)linkedin\.com/in/`),
		},
		models.FieldDateOfBirth: {
			Exact: []string{"dob", "dateofbirth", "date_of_birth", "date-of-birth", "birthdate", "birth_date", "birthday"},
			Fuzzy: res(`(?i)date.{0,5}of.{0,5}birth`, `(?i)birth.{0,5}(date|day)`, `(?i)\bdob\b`),
			Value: res(`(?i)^\d{2}[/-]\d{2}[/-]\d{4}$`, `(?i)dd\s*/\s*mm\s*/\s*yyyy|mm\s*/\s*dd\s*/\s*yyyy`),
		},
		models.FieldGender: {
			Exact: []string{"gender", "sex"},
			Fuzzy: res(`(?i)\bgender\b`, `(?i)^sex$`),
			Value: nil,
		},
		models.FieldGithub: {
			Exact: []string{"github", "git_hub", "githuburl", "github_url", "github_profile"},
			Fuzzy: res(`(?i)git.?hub`),
			Value: res(`(?i)github\.com/`),
		},
		models.FieldTwitter: {
			Exact: []string{"twitter", "twitterhandle", "twitter_handle", "x_handle"},
			Fuzzy: res(`(?i)\btwitter\b`, `(?i)x.{0,3}handle`),
			Value: res(`(?i)^@\w+$`, `(?i)(twitter|x)\.com/`),
		},
	}

	buckets := []ContextBucket{
		{
			Name: "personal",
			Keywords: map[string]int{
				"about": 10, "profile": 10, "personal": 15, "contact": 10,
				"yourself": 10, "bio": 5, "account": 5, "register": 10,
				"signup": 10, "sign": 5,
			},
			Types: []models.FieldType{
				models.FieldFirstName, models.FieldLastName, models.FieldFullName,
				models.FieldEmail, models.FieldPhone, models.FieldDateOfBirth,
				models.FieldGender,
			},
		},
		{
			Name: "address",
			Keywords: map[string]int{
				"shipping": 15, "billing": 15, "delivery": 15, "address": 15,
				"location": 10, "mailing": 10, "residence": 10, "where": 5,
			},
			Types: []models.FieldType{
				models.FieldStreet, models.FieldCity, models.FieldState,
				models.FieldZip, models.FieldCountry,
			},
		},
		{
			Name: "payment",
			Keywords: map[string]int{
				"payment": 15, "checkout": 15, "billing": 10, "card": 15,
				"purchase": 10, "order": 5, "secure": 5, "pay": 10,
			},
			Types: []models.FieldType{
				models.FieldCardNumber, models.FieldCVV, models.FieldExpiryDate,
			},
		},
		{
			Name: "work",
			Keywords: map[string]int{
				"employment": 15, "career": 15, "job": 15, "work": 10,
				"professional": 10, "experience": 10, "resume": 10,
				"application": 10, "apply": 10,
			},
			Types: []models.FieldType{
				models.FieldCompany, models.FieldJobTitle, models.FieldLinkedin,
				models.FieldGithub, models.FieldWebsite,
			},
		},
	}

	return New(sets, buckets)
}
