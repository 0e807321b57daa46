package service

import (
	"fmt"
	"net/mail"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	maxNameLength        = 255
	maxDescriptionLength = 5000
	maxTechnologies      = 30
	maxTechnologyLength  = 50
	maxLinkLength        = 2048
	maxImageLength       = 5 << 20

	maxEmailLength    = 255
	minPasswordLength = 8
	maxPasswordLength = 256

	msgUsernameTaken = "Username is already taken"
	msgEmailTaken    = "Email is already registered"
)

var (
	usernameRegex  = regexp.MustCompile(`^[A-Za-z0-9_.-]{3,50}$`)
	dataImageRegex = regexp.MustCompile(`^data:image/[A-Za-z0-9.+-]+;base64,[A-Za-z0-9+/]+={0,2}$`)
)

// ProjectInput is the client-supplied body for create and update.
type ProjectInput struct {
	Name         string
	Description  *string
	Technologies []string
	GithubLink   *string
	DemoLink     *string
	Image        *string
}

// ValidatedProject holds normalized project fields.
// Optional fields are nil when absent or blank, never "".
type ValidatedProject struct {
	Name         string
	Description  *string
	Technologies []string
	GithubLink   *string
	DemoLink     *string
	Image        *string
}

// ValidateProjectInput checks every field and reports all violations at once.
func ValidateProjectInput(in ProjectInput) (ValidatedProject, error) {
	verr := &ValidationError{}
	out := ValidatedProject{}

	out.Name = strings.TrimSpace(in.Name)
	switch {
	case out.Name == "":
		verr.add("project_name", "Project name is required", nil)
	case utf8.RuneCountInString(out.Name) > maxNameLength:
		verr.add("project_name", fmt.Sprintf("Project name must be at most %d characters", maxNameLength), nil)
	}

	out.Description = normalizeOptional(in.Description)
	if out.Description != nil && utf8.RuneCountInString(*out.Description) > maxDescriptionLength {
		verr.add("description", fmt.Sprintf("Description must be at most %d characters", maxDescriptionLength), nil)
	}

	out.Technologies = normalizeTechnologies(in.Technologies, verr)

	out.GithubLink = normalizeOptional(in.GithubLink)
	validateLink("github_link", "GitHub link", out.GithubLink, verr)

	out.DemoLink = normalizeOptional(in.DemoLink)
	validateLink("demo_link", "Demo link", out.DemoLink, verr)

	out.Image = normalizeOptional(in.Image)
	if out.Image != nil {
		switch {
		case len(*out.Image) > maxImageLength:
			verr.add("image", "Image must be at most 5 MiB", nil)
		case strings.HasPrefix(*out.Image, "data:"):
			if !dataImageRegex.MatchString(*out.Image) {
				verr.add("image", "Image must be a base64 data:image URI or an http(s) URL", nil)
			}
		case !isHTTPURL(*out.Image):
			verr.add("image", "Image must be a base64 data:image URI or an http(s) URL", nil)
		}
	}

	if err := verr.errOrNil(); err != nil {
		return ValidatedProject{}, err
	}
	return out, nil
}

// normalizeTechnologies trims entries and drops duplicates, keeping first occurrence.
func normalizeTechnologies(raw []string, verr *ValidationError) []string {
	techs := make([]string, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))

	for i, tech := range raw {
		field := fmt.Sprintf("technologies[%d]", i)
		tech = strings.TrimSpace(tech)
		if tech == "" {
			verr.add(field, "Technology must not be empty", nil)
			continue
		}
		if utf8.RuneCountInString(tech) > maxTechnologyLength {
			verr.add(field, fmt.Sprintf("Technology must be at most %d characters", maxTechnologyLength), tech)
			continue
		}
		if _, dup := seen[tech]; dup {
			continue
		}
		seen[tech] = struct{}{}
		techs = append(techs, tech)
	}

	if len(techs) > maxTechnologies {
		verr.add("technologies", fmt.Sprintf("At most %d technologies are allowed", maxTechnologies), nil)
	}
	return techs
}

func validateLink(field, label string, link *string, verr *ValidationError) {
	if link == nil {
		return
	}
	if len(*link) > maxLinkLength {
		verr.add(field, fmt.Sprintf("%s must be at most %d characters", label, maxLinkLength), nil)
		return
	}
	if !isHTTPURL(*link) {
		verr.add(field, label+" must be a valid http(s) URL", *link)
	}
}

func isHTTPURL(raw string) bool {
	parsed, err := url.Parse(raw)
	if err != nil {
		return false
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return false
	}
	return parsed.Host != ""
}

// normalizeOptional maps nil, empty and whitespace-only values to nil.
func normalizeOptional(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// RegisterInput is the body of an account registration.
type RegisterInput struct {
	Username string
	Email    string
	Password string
}

// ValidateRegisterInput normalizes and checks a registration request.
func ValidateRegisterInput(in RegisterInput) (RegisterInput, error) {
	verr := &ValidationError{}
	out := RegisterInput{
		Username: strings.TrimSpace(in.Username),
		Email:    strings.ToLower(strings.TrimSpace(in.Email)),
		Password: in.Password,
	}

	if !usernameRegex.MatchString(out.Username) {
		verr.add("username", "Username must be 3-50 characters of letters, digits, '_', '.' or '-'", out.Username)
	}

	if out.Email == "" {
		verr.add("email", "Email is required", nil)
	} else if len(out.Email) > maxEmailLength || !isEmail(out.Email) {
		verr.add("email", "Email must be a valid address", out.Email)
	}

	switch {
	case len(out.Password) < minPasswordLength:
		verr.add("password", fmt.Sprintf("Password must be at least %d characters", minPasswordLength), nil)
	case len(out.Password) > maxPasswordLength:
		verr.add("password", fmt.Sprintf("Password must be at most %d characters", maxPasswordLength), nil)
	}

	if err := verr.errOrNil(); err != nil {
		return RegisterInput{}, err
	}
	return out, nil
}

func isEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s
}

// LoginInput is the body of a login request.
type LoginInput struct {
	Username string
	Password string
}

func validateLoginInput(in LoginInput) (LoginInput, error) {
	verr := &ValidationError{}
	in.Username = strings.TrimSpace(in.Username)
	if in.Username == "" {
		verr.add("username", "Username is required", nil)
	}
	if in.Password == "" {
		verr.add("password", "Password is required", nil)
	}
	if err := verr.errOrNil(); err != nil {
		return LoginInput{}, err
	}
	return in, nil
}
