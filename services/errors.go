package services

import "errors"

// Общие ошибки, используемые в разных сервисах и маппинге HTTP.
var (
	// Ресурс не найден (универсальная)
	ErrNotFound = errors.New("requested resource not found")

	// Ошибки валидации и бизнес-правил
	ErrValidationFailed          = errors.New("validation failed")
	ErrPasswordTooShort          = errors.New("password is too short")
	ErrTeamNameRequired          = errors.New("team name is required")
	ErrTournamentNotOpen         = errors.New("tournament registration is not open")
	ErrTournamentFull            = errors.New("tournament registration is full")
	ErrRosterTooSmall            = errors.New("team must have at least 4 members to register")
	ErrTransactionRequired       = errors.New("payment transaction id is required")
	ErrTeamNameMissing           = errors.New("team name is required in the event payload")
	ErrUnknownLiveEventType      = errors.New("unknown live event type")
	ErrMatchNotLive              = errors.New("match is not live")
	ErrInvalidMatchTransition    = errors.New("invalid match status transition")
	ErrInvalidPlacement          = errors.New("placement must be a positive integer")
	ErrTournamentTitleRequired   = errors.New("tournament title is required")
	ErrTournamentInvalidCapacity = errors.New("tournament max teams must be positive")

	// Ошибки конфликтов
	ErrUserEmailConflict      = errors.New("email address is already in use")
	ErrUserUsernameConflict   = errors.New("username is already in use")
	ErrTeamNameConflict       = errors.New("team name is already in use")
	ErrRegistrationConflict   = errors.New("team is already registered for this tournament")
	ErrDuplicateEnrollment    = errors.New("a roster member is already enrolled with another team in this tournament")
	ErrRegistrationDecided    = errors.New("registration has already been approved or rejected")
	ErrResultAlreadyVerified  = errors.New("result has already been verified")
	ErrResultAlreadySubmitted = errors.New("team already submitted a result for this match")
	ErrDisputeClosed          = errors.New("dispute has already been resolved or dismissed")

	// Ошибки аутентификации и авторизации
	ErrAuthInvalidCredentials  = errors.New("invalid email or password")
	ErrForbiddenOperation      = errors.New("operation not allowed for the current user")
	ErrNotTeamLeader           = errors.New("only the team leader can perform this action")
	ErrTeamNotRegistered       = errors.New("team has no registration for this tournament")
	ErrRegistrationNotApproved = errors.New("team registration is not approved for this tournament")

	// Ошибки, специфичные для сущностей
	ErrUserNotFound         = errors.New("user not found")
	ErrTeamNotFound         = errors.New("team not found")
	ErrTournamentNotFound   = errors.New("tournament not found")
	ErrRegistrationNotFound = errors.New("registration not found")
	ErrMatchNotFound        = errors.New("match not found")
	ErrResultNotFound       = errors.New("match result not found")
	ErrDisputeNotFound      = errors.New("dispute not found")
)
