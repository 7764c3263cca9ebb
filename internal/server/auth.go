package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/mail"
	"regexp"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	ctypes "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerRequest struct {
	GivenName       string `json:"givenName"`
	FamilyName      string `json:"familyName"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

func (s *Service) handlePostLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.fail(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}

	input := &cognitoidentityprovider.InitiateAuthInput{
		AuthFlow: ctypes.AuthFlowTypeUserPasswordAuth,
		ClientId: aws.String(s.config.CognitoClientID),
		AuthParameters: map[string]string{
			"USERNAME": strings.TrimSpace(req.Email),
			"PASSWORD": req.Password,
		},
	}

	resp, err := s.cognitoClient.InitiateAuth(r.Context(), input)
	if err != nil {
		// NotAuthorizedException, UserNotConfirmedException, etc.
		s.logger.WithError(err).Debug("cognito rejected login")
		s.fail(w, http.StatusUnauthorized, "invalid credentials", nil)
		return
	}

	if resp.AuthenticationResult == nil || resp.AuthenticationResult.AccessToken == nil {
		s.fail(w, http.StatusUnauthorized, "login failed", nil)
		return
	}

	accessToken := aws.ToString(resp.AuthenticationResult.AccessToken)
	expiresIn := int(resp.AuthenticationResult.ExpiresIn)
	if expiresIn <= 0 {
		expiresIn = s.config.SessionMaxAgeSec
	}

	encryptedToken, err := s.cookie.Encode(s.config.CookieName, accessToken)
	if err != nil {
		s.logger.WithError(err).Error("failed to encrypt access token")
		s.fail(w, http.StatusInternalServerError, "login failed", nil)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     s.config.CookieName,
		Value:    encryptedToken,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   expiresIn,
		Path:     "/",
	})

	s.respond(w, http.StatusOK, "login successful", map[string]any{
		"accessToken": accessToken,
		"expiresIn":   expiresIn,
	})
}

func (s *Service) handlePostRegister(w http.ResponseWriter, r *http.Request) {
	var ctx = r.Context()

	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.fail(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}

	req.GivenName = strings.TrimSpace(req.GivenName)
	req.FamilyName = strings.TrimSpace(req.FamilyName)
	req.Email = strings.TrimSpace(req.Email)

	fieldErrors := validateRegisterInput(req.GivenName, req.FamilyName, req.Email, req.Password, req.ConfirmPassword)
	if len(fieldErrors) > 0 {
		s.fail(w, http.StatusBadRequest, "validation failed", fieldErrors)
		return
	}

	input := &cognitoidentityprovider.SignUpInput{
		ClientId: aws.String(s.config.CognitoClientID),
		Username: aws.String(req.Email), // use email as username
		Password: aws.String(req.Password),
		UserAttributes: []ctypes.AttributeType{
			{Name: aws.String("email"), Value: aws.String(req.Email)},
			{Name: aws.String("given_name"), Value: aws.String(req.GivenName)},
			{Name: aws.String("family_name"), Value: aws.String(req.FamilyName)},
		},
	}

	resp, err := s.cognitoClient.SignUp(ctx, input)
	if err != nil {
		status, message, fieldErrors := s.mapCognitoSignUpError(err)
		s.fail(w, status, message, fieldErrors)
		return
	}

	userID := aws.ToString(resp.UserSub)
	if err := s.users.UpsertIdentity(ctx, userID, req.Email, req.GivenName, req.FamilyName); err != nil {
		s.handleError(w, r, err, "failed to create user record")
		return
	}

	s.respond(w, http.StatusCreated, "account created", map[string]any{
		"userId":    userID,
		"confirmed": resp.UserConfirmed,
	})
}

var (
	hasUpperReg  = regexp.MustCompile(`[A-Z]`)
	hasLowerReg  = regexp.MustCompile(`[a-z]`)
	hasDigitReg  = regexp.MustCompile(`[0-9]`)
	hasSymbolReg = regexp.MustCompile(`[^A-Za-z0-9]`)
)

func validateRegisterInput(givenName, familyName, email, password, confirmPassword string) map[string]string {
	errs := map[string]string{}

	if givenName == "" {
		errs["givenName"] = "First name is required."
	}

	if familyName == "" {
		errs["familyName"] = "Last name is required."
	}

	if email == "" {
		errs["email"] = "Email is required."
	} else if _, err := mail.ParseAddress(email); err != nil {
		errs["email"] = "Enter a valid email address."
	}

	if password != confirmPassword {
		errs["confirmPassword"] = "Passwords do not match."
	}

	hasUpper := hasUpperReg.MatchString(password)
	hasLower := hasLowerReg.MatchString(password)
	hasDigit := hasDigitReg.MatchString(password)
	hasSymbol := hasSymbolReg.MatchString(password)

	if len(password) < 12 || !hasUpper || !hasLower || !hasDigit || !hasSymbol {
		errs["password"] = "Password must be at least 12 characters and include uppercase, lowercase, number, and symbol."
	}

	return errs
}

func (s *Service) mapCognitoSignUpError(err error) (int, string, map[string]string) {
	fieldErrs := map[string]string{}

	var invalidPw *ctypes.InvalidPasswordException
	if errors.As(err, &invalidPw) {
		fieldErrs["password"] = "Password must include uppercase, lowercase, number, and symbol (min 12)."
		return http.StatusBadRequest, "validation failed", fieldErrs
	}

	var userExists *ctypes.UsernameExistsException
	if errors.As(err, &userExists) {
		fieldErrs["email"] = "An account with this email already exists."
		return http.StatusConflict, "try logging in instead", fieldErrs
	}

	var invalidParam *ctypes.InvalidParameterException
	if errors.As(err, &invalidParam) {
		return http.StatusBadRequest, "some details are invalid", fieldErrs
	}

	s.logger.WithError(err).Error("unhandled cognito signup error")

	return http.StatusInternalServerError, "unable to create account right now", fieldErrs
}
