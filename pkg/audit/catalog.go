package audit

// Code is a stable short string identifying a catalog entry. Codes are never
// reused for a different meaning across releases; the catalog only grows.
type Code string

// Study builder events.
const (
	NewStudyCreationInitiated            Code = "NEW_STUDY_CREATION_INITIATED"
	StudySavedInDraftState               Code = "STUDY_SAVED_IN_DRAFT_STATE"
	StudyViewed                          Code = "STUDY_VIEWED"
	StudyAccessedInEditMode              Code = "STUDY_ACCESSED_IN_EDIT_MODE"
	LastPublishedVersionOfStudyViewed    Code = "LAST_PUBLISHED_VERSION_OF_STUDY_VIEWED"
	StudyLaunched                        Code = "STUDY_LAUNCHED"
	StudyPublishedAsUpcomingStudy        Code = "STUDY_PUBLISHED_AS_UPCOMING_STUDY"
	UpdatesPublishedToStudy              Code = "UPDATES_PUBLISHED_TO_STUDY"
	StudyPaused                          Code = "STUDY_PAUSED"
	StudyResumed                         Code = "STUDY_RESUMED"
	StudyDeactivated                     Code = "STUDY_DEACTIVATED"
	StudySettingsSavedOrUpdated          Code = "STUDY_SETTINGS_SAVED_OR_UPDATED"
	StudySettingsMarkedComplete          Code = "STUDY_SETTINGS_MARKED_COMPLETE"
	StudyBasicInfoSectionSavedOrUpdated  Code = "STUDY_BASIC_INFO_SECTION_SAVED_OR_UPDATED"
	StudyBasicInfoSectionMarkedComplete  Code = "STUDY_BASIC_INFO_SECTION_MARKED_COMPLETE"
	StudyConsentSectionsMarkedComplete   Code = "STUDY_CONSENT_SECTIONS_MARKED_COMPLETE"
	StudyNotificationsSectionMarkedDone  Code = "STUDY_NOTIFICATIONS_SECTION_MARKED_COMPLETE"
	StudyQuestionnairesSectionMarkedDone Code = "STUDY_QUESTIONNAIRES_SECTION_MARKED_COMPLETE"
	StudyResourceSectionMarkedComplete   Code = "STUDY_RESOURCE_SECTION_MARKED_COMPLETE"
	StudyResourceSavedOrUpdated          Code = "STUDY_RESOURCE_SAVED_OR_UPDATED"
	StudyResourceMarkedCompleted         Code = "STUDY_RESOURCE_MARKED_COMPLETED"
)

// User management events.
const (
	AccountRegistrationRequestReceived Code = "ACCOUNT_REGISTRATION_REQUEST_RECEIVED"
	UserCreated                        Code = "USER_CREATED"
	UserNotCreatedAfterAuthFailure     Code = "USER_NOT_CREATED_AFTER_REGISTRATION_FAILED_IN_AUTH_SERVER"
	RegistrationFailedExistingUsername Code = "USER_REGISTRATION_ATTEMPT_FAILED_EXISTING_USERNAME"
	VerificationEmailSent              Code = "VERIFICATION_EMAIL_SENT"
	VerificationEmailFailed            Code = "VERIFICATION_EMAIL_FAILED"
	AccountActivated                   Code = "ACCOUNT_ACTIVATED"
)

// Participant manager events.
const (
	NewLocationAdded       Code = "NEW_LOCATION_ADDED"
	LocationEdited         Code = "LOCATION_EDITED"
	LocationDecommissioned Code = "LOCATION_DECOMMISSIONED"
	LocationActivated      Code = "LOCATION_ACTIVATED"
	SiteAddedForStudy      Code = "SITE_ADDED_FOR_STUDY"
)

// Definition describes one catalog entry.
type Definition struct {
	Code     Code
	Name     string
	Category EventCategory
	// Alert marks events that require operator attention when they fire.
	Alert bool
}

// Lookup resolves a code to its definition. The switch is the catalog: a
// deliberate closed set, extended only by adding a constant and a case here.
func Lookup(code Code) (Definition, bool) {
	switch code {
	case NewStudyCreationInitiated:
		return Definition{code, "New study creation initiated", CategoryOperations, false}, true
	case StudySavedInDraftState:
		return Definition{code, "Study saved in draft state", CategoryOperations, false}, true
	case StudyViewed:
		return Definition{code, "Study viewed", CategoryOperations, false}, true
	case StudyAccessedInEditMode:
		return Definition{code, "Study accessed in edit mode", CategorySecurity, false}, true
	case LastPublishedVersionOfStudyViewed:
		return Definition{code, "Last published version of study viewed", CategoryOperations, false}, true
	case StudyLaunched:
		return Definition{code, "Study launched", CategoryCompliance, false}, true
	case StudyPublishedAsUpcomingStudy:
		return Definition{code, "Study published as upcoming study", CategoryCompliance, false}, true
	case UpdatesPublishedToStudy:
		return Definition{code, "Updates published to study", CategoryCompliance, false}, true
	case StudyPaused:
		return Definition{code, "Study paused", CategoryCompliance, false}, true
	case StudyResumed:
		return Definition{code, "Study resumed", CategoryCompliance, false}, true
	case StudyDeactivated:
		return Definition{code, "Study deactivated", CategoryCompliance, false}, true
	case StudySettingsSavedOrUpdated:
		return Definition{code, "Study settings saved or updated", CategoryOperations, false}, true
	case StudySettingsMarkedComplete:
		return Definition{code, "Study settings marked complete", CategoryOperations, false}, true
	case StudyBasicInfoSectionSavedOrUpdated:
		return Definition{code, "Study basic info section saved or updated", CategoryOperations, false}, true
	case StudyBasicInfoSectionMarkedComplete:
		return Definition{code, "Study basic info section marked complete", CategoryOperations, false}, true
	case StudyConsentSectionsMarkedComplete:
		return Definition{code, "Study consent sections marked complete", CategoryCompliance, false}, true
	case StudyNotificationsSectionMarkedDone:
		return Definition{code, "Study notifications section marked complete", CategoryOperations, false}, true
	case StudyQuestionnairesSectionMarkedDone:
		return Definition{code, "Study questionnaires section marked complete", CategoryOperations, false}, true
	case StudyResourceSectionMarkedComplete:
		return Definition{code, "Study resource section marked complete", CategoryOperations, false}, true
	case StudyResourceSavedOrUpdated:
		return Definition{code, "Study resource saved or updated", CategoryOperations, false}, true
	case StudyResourceMarkedCompleted:
		return Definition{code, "Study resource marked completed", CategoryOperations, false}, true
	case AccountRegistrationRequestReceived:
		return Definition{code, "Account registration request received", CategoryCompliance, false}, true
	case UserCreated:
		return Definition{code, "User created", CategoryCompliance, false}, true
	case UserNotCreatedAfterAuthFailure:
		return Definition{code, "User not created after registration failed in auth server", CategorySecurity, true}, true
	case RegistrationFailedExistingUsername:
		return Definition{code, "User registration attempt failed for existing username", CategorySecurity, false}, true
	case VerificationEmailSent:
		return Definition{code, "Verification email sent", CategoryOperations, false}, true
	case VerificationEmailFailed:
		return Definition{code, "Verification email failed", CategorySecurity, true}, true
	case AccountActivated:
		return Definition{code, "Account activated", CategoryCompliance, false}, true
	case NewLocationAdded:
		return Definition{code, "New location added", CategoryOperations, false}, true
	case LocationEdited:
		return Definition{code, "Location edited", CategoryOperations, false}, true
	case LocationDecommissioned:
		return Definition{code, "Location decommissioned", CategoryCompliance, false}, true
	case LocationActivated:
		return Definition{code, "Location activated", CategoryOperations, false}, true
	case SiteAddedForStudy:
		return Definition{code, "Site added for study", CategoryCompliance, false}, true
	}
	return Definition{}, false
}

// All returns every catalog definition, in stable declaration order.
func All() []Definition {
	codes := []Code{
		NewStudyCreationInitiated, StudySavedInDraftState, StudyViewed,
		StudyAccessedInEditMode, LastPublishedVersionOfStudyViewed,
		StudyLaunched, StudyPublishedAsUpcomingStudy, UpdatesPublishedToStudy,
		StudyPaused, StudyResumed, StudyDeactivated,
		StudySettingsSavedOrUpdated, StudySettingsMarkedComplete,
		StudyBasicInfoSectionSavedOrUpdated, StudyBasicInfoSectionMarkedComplete,
		StudyConsentSectionsMarkedComplete, StudyNotificationsSectionMarkedDone,
		StudyQuestionnairesSectionMarkedDone, StudyResourceSectionMarkedComplete,
		StudyResourceSavedOrUpdated, StudyResourceMarkedCompleted,
		AccountRegistrationRequestReceived, UserCreated,
		UserNotCreatedAfterAuthFailure, RegistrationFailedExistingUsername,
		VerificationEmailSent, VerificationEmailFailed, AccountActivated,
		NewLocationAdded, LocationEdited, LocationDecommissioned,
		LocationActivated, SiteAddedForStudy,
	}
	defs := make([]Definition, 0, len(codes))
	for _, c := range codes {
		def, ok := Lookup(c)
		if !ok {
			continue
		}
		defs = append(defs, def)
	}
	return defs
}

// CategoryOf returns the category for a code. Unknown codes default to
// CategoryOperations so a forgotten catalog entry degrades to the cheapest
// retention class instead of dropping the event.
func CategoryOf(code Code) EventCategory {
	if def, ok := Lookup(code); ok {
		return def.Category
	}
	return CategoryOperations
}
