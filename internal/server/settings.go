package server

// Setting keys stored as opaque JSON blobs.
const (
	settingContact    = "contact_settings"
	settingNotes      = "important_notes"
	settingSite       = "site_settings"
	settingAppearance = "appearance_settings"
)

// settingDefaults is served when a key has never been written, so the
// calculator page renders sensibly on a fresh install.
var settingDefaults = map[string]string{
	settingContact: `{
		"contactEnabled": true,
		"buttonText": "Let's Talk",
		"buttonUrl": "https://deelab.io/contact",
		"title": "Still have questions?",
		"description": "Our team is here to help you understand our services and find the right solution for your project."
	}`,
	settingNotes: `{
		"enabled": true,
		"title": "Important Notes",
		"content": "<p><strong>Platform Requirements:</strong> Clients provide annotation platform access or DeeLab can suggest and set up platforms as a separate project.</p><p><strong>Data Access:</strong> Clients provide data via a cloud folder with access rights or connect their cloud to the annotation platform.</p>"
	}`,
	settingSite: `{
		"showCalculatorHeader": true,
		"calculatorTitle": "Cost Calculator",
		"calculatorDescription": "Get instant pricing estimates for your data annotation projects.",
		"notificationEmails": "",
		"theme": "light",
		"enableAnimations": true
	}`,
	settingAppearance: `{
		"primaryColor": "#2563eb",
		"secondaryColor": "#64748b",
		"backgroundColor": "#ffffff",
		"textColor": "#1f2937",
		"cardBackground": "#f8fafc",
		"fontFamily": "system",
		"fontSize": "16px",
		"containerWidth": "1000px",
		"cardSpacing": "normal",
		"borderRadius": "8px",
		"customCss": ""
	}`,
}
