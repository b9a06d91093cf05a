package config

import "time"

// Default values for configuration.
const (
	DefaultLogLevel = "info"

	DefaultStoreTimeout         = 30 * time.Second
	DefaultStoreConnectTimeout  = 10 * time.Second
	DefaultStoreMaxRetries      = 3
	DefaultStoreRetryBaseDelay  = time.Second
	DefaultStoreProductListSize = 10

	DefaultGeminiModel             = "gemini-2.0-flash"
	DefaultGeminiTemperature       = 0.2
	DefaultGeminiMaxRetries        = 2
	DefaultGeminiRetryDelaySeconds = 2
	DefaultGeminiHistoryMessages   = 10
	DefaultGeminiTimeout           = time.Minute

	DefaultDBPath           = "storage.db"
	DefaultHistoryRetention = 7 * 24 * time.Hour
	DefaultAuditRetention   = 90 * 24 * time.Hour

	DefaultPendingBackend = "memory"
	DefaultPendingTTL     = 30 * time.Minute
	DefaultRedisPrefix    = "wooadminbot:pending:"

	DefaultMediaMaxDimension     = 800
	DefaultMediaJPEGQuality      = 85
	DefaultMediaMaxDownloadBytes = 10 * 1024 * 1024

	DefaultStatusAddr = ":8080"
)

// DefaultTasks are the scheduled tasks known to the bot with their default schedules.
var DefaultTasks = map[string]TaskConfig{
	"pending_sweep":     {Enabled: true, Schedule: "0 */5 * * * *"},
	"low_stock_report":  {Enabled: false, Schedule: "0 0 9 * * *"},
	"history_retention": {Enabled: true, Schedule: "0 30 3 * * *"},
	"sql_maintenance":   {Enabled: true, Schedule: "0 0 4 * * 0"},
}

// DefaultMessages are the Hebrew user-facing strings.
var DefaultMessages = MessagesConfig{
	WelcomeFmt: "שלום %s! אני הבוט לניהול חנות WooCommerce שלך.\n" +
		"אני יכול לעזור לך בניהול מוצרים, הזמנות, לקוחות ועוד.\n" +
		"פשוט כתוב/י לי מה את/ה רוצה לעשות בשפה טבעית.\n" +
		"אפשר גם לשלוח תמונה ואז את שם המוצר כדי להוסיף לו תמונה.",
	HelpHeader:           "הפעולות שאני יודע לבצע:\n\n",
	ErrorUnauthorizedMsg: "🚫 אין לך הרשאה להשתמש בבוט הזה.",
	ErrorGeneralMsg:      "מצטער, אירעה שגיאה בעיבוד הבקשה שלך. אנא נסה שוב.",
	ClassifierErrorMsg:   "לא הצלחתי להבין את הבקשה. נסה לנסח אותה אחרת.",
	UnknownOperationFmt:  "אני לא מכיר את הפעולה '%s'.",
	ProcessingRequestMsg: "🔄 מעבד את הבקשה שלך...\nאנא המתן מספר שניות",
	ProcessingPhotoMsg:   "🔄 מעבד את התמונה...\nאנא המתן",

	PhotoPromptFmt: "קיבלתי את התמונה! 📸\n\n" +
		"לאיזה מוצר להוסיף את התמונה?\n" +
		"אנא העתק את השם המדויק מהרשימה:\n\n%s",
	PhotoNotFoundFmt: "לא נמצא מוצר בשם '%s'.\n" +
		"אנא בחר את השם המדויק מהרשימה:\n\n%s",
	PhotoNoProductsMsg:    "לא נמצאו מוצרים בחנות. אנא צור מוצר חדש לפני הוספת תמונה.",
	PhotoDownloadErrorMsg: "שגיאה בהורדת התמונה. אנא נסה שוב.",
	PhotoErrorMsg:         "שגיאה בטיפול בתמונה. אנא נסה שוב.",

	AttachSuccessFmt:     "✅ התמונה הועלתה בהצלחה למוצר '%s'",
	AttachPreviewFmt:     "תצוגה מקדימה של התמונה החדשה:\n%s\n\nסך הכל %d תמונות למוצר זה.",
	AttachFetchErrorMsg:  "שגיאה בקבלת פרטי המוצר. אנא נסה שוב.",
	AttachUploadErrorMsg: "שגיאה בהעלאת התמונה. אנא ודא שהתמונה תקינה ונסה שוב.",
	AttachUpdateErrorMsg: "שגיאה בעדכון המוצר. אנא נסה שוב.",
	AttachVerifyErrorMsg: "לא הצלחתי לאמת את שיוך התמונה למוצר. אנא נסה שוב.",
	AttachRetryHint:      "\n\nכדי לנסות שוב, שלח את התמונה מחדש ואז את שם המוצר.",

	NotFoundFmt:         "לא נמצא %s בשם '%s'",
	RemoteConnectionMsg: "שגיאה בתקשורת עם השרת. אנא ודא שיש חיבור לאינטרנט ונסה שוב.",
	RemoteTimeoutMsg:    "השרת לא הגיב בזמן. אנא נסה שוב.",
	RemoteStatusFmt:     "השרת החזיר שגיאה (%d): %s",

	ResetConfirmMsg: "🔄 היסטוריית השיחה והתמונה הממתינה נמחקו.",
	ResetErrorMsg:   "שגיאה במחיקת היסטוריית השיחה. אנא נסה שוב.",

	LowStockReportHeader: "⚠️ דוח מלאי נמוך:\n",
}
