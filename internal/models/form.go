package models

// Form is an intake form a member can complete.
type Form struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Required    bool     `json:"required"`
	Fields      []string `json:"fields"`
}

// Forms is the studio's intake form catalog.
var Forms = []Form{
	{ID: "waiver", Title: "Member Waiver", Description: "Required liability waiver for all members", Required: true,
		Fields: []string{"Full Name", "Date of Birth", "Emergency Contact", "Signature"}},
	{ID: "health", Title: "Health Questionnaire", Description: "Medical history and fitness assessment", Required: true,
		Fields: []string{"Medical History", "Current Medications", "Injuries", "Fitness Level"}},
	{ID: "emergency", Title: "Emergency Contact Form", Description: "Contact information for emergencies", Required: true,
		Fields: []string{"Emergency Contact Name", "Relationship", "Phone Number"}},
	{ID: "media", Title: "Photo/Video Release", Description: "Media consent for marketing materials",
		Fields: []string{"Consent Agreement", "Signature"}},
	{ID: "training", Title: "Private Training Interest", Description: "Request one-on-one coaching sessions",
		Fields: []string{"Training Goals", "Preferred Schedule", "Experience Level"}},
}

// RequiredFormIDs returns the ids of forms that gate booking.
func RequiredFormIDs() []string {
	var ids []string
	for _, f := range Forms {
		if f.Required {
			ids = append(ids, f.ID)
		}
	}
	return ids
}

// FindForm returns the form with the given id.
func FindForm(id string) (Form, bool) {
	for _, f := range Forms {
		if f.ID == id {
			return f, true
		}
	}
	return Form{}, false
}
