package crud

import (
	"context"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"animeHub/domain"
	"animeHub/errs"
)

// User field limits.
const (
	UsernameMinLength  = 3
	UsernameMaxLength  = 20
	PasswordMinLength  = 6
	PasswordMaxLength  = 32
	SignatureMaxLength = 200
)

// UserService manages Users. It also contains the part of the authentication system
// that deals with the database: registration, login and resolving bearer tokens.
// Digests and tokens themselves come from the domain.Credentials it's given.
// It implements the domain.UserService interface.
type UserService struct {
	userValidator
}

// userValidator runs validations on incoming User data.
// On success, it passes the data on to userGorm.
// Otherwise, it returns the error of the validation that has failed.
type userValidator struct {
	creds      domain.Credentials
	emailRegex *regexp.Regexp
	userGorm
}

// userGorm runs CRUD operations on the database using incoming User data.
// It assumes that data has been validated. On success, it returns nil.
// Otherwise, it returns the error of the operation that has failed.
type userGorm struct {
	db *gorm.DB
}

// NewUserService returns an instance of UserService.
func NewUserService(db *gorm.DB, creds domain.Credentials) *UserService {
	return &UserService{
		userValidator{
			creds:      creds,
			emailRegex: regexp.MustCompile(`^[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,16}$`),
			userGorm: userGorm{
				db: db,
			},
		},
	}
}

// Ensure the UserService struct properly implements the domain.UserService interface.
// If it does not, then this expression becomes invalid and won't compile.
var _ domain.UserService = &UserService{}

// errBadLogin is returned for unknown usernames and wrong passwords alike.
var errBadLogin = errs.Errorf(errs.EINVALID, "The username or password is incorrect.")

// Register runs validations needed for creating new User database records.
func (uv *userValidator) Register(ctx context.Context, user *domain.User) error {
	err := runUserValFns(ctx, user,
		uv.usernameNormalize,
		uv.usernameLength,
		uv.usernameIsAvail,
		uv.emailNormalize,
		uv.emailRequired,
		uv.emailFormat,
		uv.emailIsAvail,
		uv.passwordRequired,
		uv.passwordLength,
		uv.passwordHash,
		uv.signatureMaxLength)
	if err != nil {
		return err
	}
	user.IsActive = true
	return uv.userGorm.create(ctx, user)
}

// Authenticate checks a submitted username and password for existence and correctness.
// Disabled accounts can't log in.
func (uv *userValidator) Authenticate(ctx context.Context, username, password string) (*domain.User, error) {
	found, err := uv.userGorm.byUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errBadLogin
		}
		return nil, errors.WithMessage(err, "find user by username")
	}
	if !uv.creds.Verify(password, found.PasswordHash) {
		return nil, errBadLogin
	}
	if !found.IsActive {
		return nil, errs.Errorf(errs.EINVALID, "This account has been disabled.")
	}
	return found, nil
}

// IssueToken returns a bearer token identifying the user.
func (uv *userValidator) IssueToken(user *domain.User) (string, error) {
	return uv.creds.IssueToken(user.ID)
}

// ByToken resolves a bearer token to an active user.
func (uv *userValidator) ByToken(ctx context.Context, token string) (*domain.User, error) {
	id, err := uv.creds.ParseToken(token)
	if err != nil {
		return nil, errs.Errorf(errs.EUNAUTHORIZED, "The token is invalid or has expired.")
	}
	user, err := uv.userGorm.ByID(ctx, id)
	if err != nil {
		if errs.ErrorCode(err) == errs.ENOTFOUND {
			return nil, errs.Errorf(errs.EUNAUTHORIZED, "The token is invalid or has expired.")
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, errs.Errorf(errs.EUNAUTHORIZED, "This account has been disabled.")
	}
	return user, nil
}

// UpdateProfile runs validations needed for changing a user's username, email or signature.
func (uv *userValidator) UpdateProfile(ctx context.Context, user *domain.User, upd domain.UserUpdate) error {
	changed := *user
	if upd.Username != nil {
		changed.Username = *upd.Username
	}
	if upd.Email != nil {
		changed.Email = *upd.Email
	}
	if upd.Signature != nil {
		changed.Signature = *upd.Signature
	}
	err := runUserValFns(ctx, &changed,
		uv.usernameNormalize,
		uv.usernameLength,
		uv.usernameIsAvail,
		uv.emailNormalize,
		uv.emailRequired,
		uv.emailFormat,
		uv.emailIsAvail,
		uv.signatureMaxLength)
	if err != nil {
		return err
	}
	if err := uv.userGorm.update(ctx, &changed, "username", "email", "signature"); err != nil {
		return err
	}
	*user = changed
	return nil
}

// ChangePassword verifies the current password and replaces it.
func (uv *userValidator) ChangePassword(ctx context.Context, user *domain.User, current, next string) error {
	if !uv.creds.Verify(current, user.PasswordHash) {
		return errs.Errorf(errs.EINVALID, "The current password is incorrect.")
	}
	changed := *user
	changed.Password = next
	err := runUserValFns(ctx, &changed,
		uv.passwordRequired,
		uv.passwordLength,
		uv.passwordHash)
	if err != nil {
		return err
	}
	if err := uv.userGorm.update(ctx, &changed, "password_hash"); err != nil {
		return err
	}
	*user = changed
	return nil
}

// runUserValFns runs any number of functions of type userValFn on the passed in User object.
// If none of them returns an error, it returns nil. Otherwise, it returns the respective error.
func runUserValFns(ctx context.Context, user *domain.User, fns ...userValFn) error {
	for _, fn := range fns {
		if err := fn(ctx, user); err != nil {
			return err
		}
	}
	return nil
}

// A userValFn is any function that takes in a pointer to a domain.User object and returns an error.
type userValFn func(ctx context.Context, user *domain.User) error

// usernameNormalize trims the username's surrounding whitespace.
func (uv *userValidator) usernameNormalize(_ context.Context, user *domain.User) error {
	user.Username = strings.TrimSpace(user.Username)
	return nil
}

// usernameLength makes sure the username has between 3 and 20 characters.
func (uv *userValidator) usernameLength(_ context.Context, user *domain.User) error {
	n := utf8.RuneCountInString(user.Username)
	if n < UsernameMinLength || n > UsernameMaxLength {
		return errs.Errorf(errs.EINVALID, "The username must have between %d and %d characters.", UsernameMinLength, UsernameMaxLength)
	}
	return nil
}

// usernameIsAvail makes sure that the username is not taken by another user.
func (uv *userValidator) usernameIsAvail(ctx context.Context, user *domain.User) error {
	existing, err := uv.userGorm.byUsername(ctx, user.Username)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return errors.WithMessage(err, "find user by username")
	}
	if user.ID != existing.ID {
		return errs.Errorf(errs.ECONFLICT, "This username is already taken.")
	}
	return nil
}

// emailFormat makes sure that a provided email address matches a predefined regex pattern.
func (uv *userValidator) emailFormat(_ context.Context, user *domain.User) error {
	if !uv.emailRegex.MatchString(user.Email) {
		return errs.Errorf(errs.EINVALID, "The email address is invalid.")
	}
	return nil
}

// emailIsAvail makes sure that a provided email address is not yet taken.
func (uv *userValidator) emailIsAvail(ctx context.Context, user *domain.User) error {
	existing, err := uv.userGorm.byEmail(ctx, user.Email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return errors.WithMessage(err, "find user by email")
	}
	if user.ID != existing.ID {
		return errs.Errorf(errs.ECONFLICT, "This email address is already taken.")
	}
	return nil
}

// emailNormalize converts the email to all lowercase and trims its whitespaces.
func (uv *userValidator) emailNormalize(_ context.Context, user *domain.User) error {
	user.Email = strings.TrimSpace(strings.ToLower(user.Email))
	return nil
}

// emailRequired makes sure that the email is not the empty string.
func (uv *userValidator) emailRequired(_ context.Context, user *domain.User) error {
	if user.Email == "" {
		return errs.Errorf(errs.EINVALID, "An email address is required.")
	}
	return nil
}

// passwordRequired makes sure that the user's password is not the empty string.
func (uv *userValidator) passwordRequired(_ context.Context, user *domain.User) error {
	if user.Password == "" {
		return errs.Errorf(errs.EINVALID, "A password is required.")
	}
	return nil
}

// passwordLength makes sure the password has between 6 and 32 characters.
func (uv *userValidator) passwordLength(_ context.Context, user *domain.User) error {
	n := utf8.RuneCountInString(user.Password)
	if n < PasswordMinLength || n > PasswordMaxLength {
		return errs.Errorf(errs.EINVALID, "The password must have between %d and %d characters.", PasswordMinLength, PasswordMaxLength)
	}
	return nil
}

// passwordHash digests the user's password and clears the plain text in memory.
func (uv *userValidator) passwordHash(_ context.Context, user *domain.User) error {
	digest, err := uv.creds.Hash(user.Password)
	if err != nil {
		return errors.WithMessage(err, "hash password")
	}
	user.PasswordHash = digest
	user.Password = ""
	return nil
}

// signatureMaxLength makes sure the signature does not exceed SignatureMaxLength.
func (uv *userValidator) signatureMaxLength(_ context.Context, user *domain.User) error {
	if utf8.RuneCountInString(user.Signature) > SignatureMaxLength {
		return errs.Errorf(errs.EINVALID, "The signature max length is %d characters.", SignatureMaxLength)
	}
	return nil
}

// ByID retrieves a User database record by ID.
func (ug *userGorm) ByID(ctx context.Context, id int) (*domain.User, error) {
	var user domain.User
	err := ug.db.WithContext(ctx).First(&user, "id = ?", id).Error
	if err != nil {
		return nil, notFound(err, "The user does not exist.")
	}
	return &user, nil
}

// Profile retrieves a user's public profile with counts computed at read time:
// posts written, likes received on those posts, followers and followed users.
func (ug *userGorm) Profile(ctx context.Context, id int, viewer *domain.User) (*domain.UserProfile, error) {
	user, err := ug.ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	db := ug.db.WithContext(ctx)
	p := &domain.UserProfile{
		UserSummary: user.Summary(),
		Signature:   user.Signature,
	}
	counts := []struct {
		dst   *int64
		query *gorm.DB
	}{
		{&p.PostsCount, db.Model(&domain.Post{}).Where("author_id = ?", id)},
		{&p.LikesCount, db.Model(&domain.PostLike{}).
			Joins("JOIN posts ON posts.id = post_likes.post_id").
			Where("posts.author_id = ?", id)},
		{&p.FollowersCount, db.Model(&domain.Follow{}).Where("following_id = ?", id)},
		{&p.FollowingCount, db.Model(&domain.Follow{}).Where("follower_id = ?", id)},
	}
	for _, c := range counts {
		if err := c.query.Count(c.dst).Error; err != nil {
			return nil, errors.WithMessage(err, "count profile")
		}
	}
	p.IsFollowing, err = isFollowing(db, viewerID(viewer), id)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// UpdateSettings stores the notification and privacy preferences of a user.
func (ug *userGorm) UpdateSettings(ctx context.Context, user *domain.User, settings domain.UserSettings) error {
	user.EmailNotifications = settings.EmailNotifications
	user.MessageNotifications = settings.MessageNotifications
	user.PublicProfile = settings.PublicProfile
	return ug.update(ctx, user, "email_notifications", "message_notifications", "public_profile")
}

// SetAvatar stores the url of the user's avatar.
func (ug *userGorm) SetAvatar(ctx context.Context, user *domain.User, url string) error {
	user.Avatar = url
	return ug.update(ctx, user, "avatar")
}

// DeleteAccount removes the user's own account and everything depending on it,
// after checking the password once more.
func (uv *userValidator) DeleteAccount(ctx context.Context, user *domain.User, password string) (*domain.CascadeReport, error) {
	if !uv.creds.Verify(password, user.PasswordHash) {
		return nil, errs.Errorf(errs.EINVALID, "The password is incorrect.")
	}
	deletion, err := deleteUser(ctx, uv.db, user.ID, user, true)
	if err != nil {
		return nil, err
	}
	return deletion.Report, nil
}

// byUsername retrieves a User database record by username.
func (ug *userGorm) byUsername(ctx context.Context, username string) (*domain.User, error) {
	var user domain.User
	err := ug.db.WithContext(ctx).Where("username = ?", username).First(&user).Error
	return &user, err
}

// byEmail retrieves a User database record by email.
func (ug *userGorm) byEmail(ctx context.Context, email string) (*domain.User, error) {
	var user domain.User
	err := ug.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	return &user, err
}

// create stores the data from the User object in a new database record.
// A registration racing another one past the availability checks ends up here
// as a unique index violation.
func (ug *userGorm) create(ctx context.Context, user *domain.User) error {
	err := ug.db.WithContext(ctx).Create(user).Error
	if isDuplicate(err) {
		return errs.Errorf(errs.ECONFLICT, "The username or email address is already taken.")
	}
	return errors.WithMessage(err, "create user")
}

// update saves the given columns of the user, including false and empty values.
func (ug *userGorm) update(ctx context.Context, user *domain.User, columns ...string) error {
	err := ug.db.WithContext(ctx).Model(user).Select(columns).Updates(user).Error
	if isDuplicate(err) {
		return errs.Errorf(errs.ECONFLICT, "The username or email address is already taken.")
	}
	return errors.WithMessage(err, "update user")
}
