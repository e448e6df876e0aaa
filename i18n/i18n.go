// Package i18n holds the UI strings in English and Malay and formats money.
package i18n

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

const DefaultLang = "en"

// Supported lists the languages with a message table.
var Supported = []string{"en", "ms"}

var messages = map[string]map[string]string{
	"en": {
		// errors
		"required":             "Required",
		"must_not_be_negative": "Must not be negative",
		"too_short":            "Too short",
		"too_long":             "Too long",
		"out_of_range":         "Out of range",
		"too_precise":          "Too many decimal places",
		"invalid_choice":       "Invalid choice",
		"invalid":              "Invalid value",
		"validation_failed":    "Please correct the highlighted fields.",
		"not_found":            "Not found",
		"number_conflict":      "That number was just taken. Please submit again.",
		"sequence_corrupt":     "The latest document number is malformed; numbering is stopped.",
		"client_in_use":        "This client still has quotes or invoices and cannot be deleted.",
		"invalid_transition":   "This status change is not allowed.",
		"internal_error":       "Something went wrong.",
		"invalid_form":         "The form could not be read.",
		"invalid_json":         "Invalid JSON body.",
		// navigation
		"dashboard": "Dashboard",
		"clients":   "Clients",
		"quotes":    "Quotes",
		"invoices":  "Invoices",
		"expenses":  "Expenses",
		"settings":  "Settings",
		// labels
		"quote":           "Quote",
		"invoice":         "Invoice",
		"number":          "No.",
		"date":            "Date",
		"valid_until":     "Valid until",
		"client":          "Client",
		"cust_id":         "Customer ID",
		"name":            "Name",
		"address":         "Address",
		"phone":           "Phone",
		"project_title":   "Project",
		"notes":           "Notes",
		"terms":           "Terms & conditions",
		"description":     "Description",
		"quantity":        "Qty",
		"unit_price":      "Unit price",
		"amount":          "Amount",
		"subtotal":        "Subtotal",
		"tax":             "Tax",
		"tax_rate":        "Tax rate",
		"discount":        "Discount",
		"total":           "Total",
		"status":          "Status",
		"category":        "Category",
		"company_name":    "Company name",
		"bank_details":    "Bank details",
		"revenue":         "Revenue",
		"pending":         "Pending payments",
		"net_profit":      "Net profit",
		"active_quotes":   "Active quotes",
		"recent_invoices": "Recent invoices",
		"by_category":     "By category",
		"from":            "From",
		"to":              "To",
		"search":          "Search",
		"all":             "All",
		"new_client":      "New client",
		"new_quote":       "New quote",
		"new_invoice":     "New invoice",
		"add_item":        "Add line",
		"add_expense":     "Add expense",
		"save":            "Save",
		"edit":            "Edit",
		"delete":          "Delete",
		"cancel":          "Cancel",
		"filter":          "Filter",
		"mark_paid":       "Mark as paid",
		"mark_unpaid":     "Mark as unpaid",
		"confirm_delete":  "Delete permanently?",
		"no_records":      "Nothing here yet.",
		"previous":        "Previous",
		"next":            "Next",
		"saved":           "Saved.",
		"payment_to":      "Payment to",
		// statuses and categories
		"Pending":   "Pending",
		"Unpaid":    "Unpaid",
		"Paid":      "Paid",
		"Fuel":      "Fuel",
		"Wages":     "Wages",
		"Materials": "Materials",
		"Tools":     "Tools",
		"Food":      "Food",
		"Disposal":  "Disposal",
		"Other":     "Other",
	},
	"ms": {
		"required":             "Wajib diisi",
		"must_not_be_negative": "Tidak boleh negatif",
		"too_short":            "Terlalu pendek",
		"too_long":             "Terlalu panjang",
		"out_of_range":         "Di luar julat",
		"too_precise":          "Terlalu banyak tempat perpuluhan",
		"invalid_choice":       "Pilihan tidak sah",
		"invalid":              "Nilai tidak sah",
		"validation_failed":    "Sila betulkan medan yang ditandakan.",
		"not_found":            "Tidak dijumpai",
		"number_conflict":      "Nombor itu baru sahaja digunakan. Sila hantar semula.",
		"sequence_corrupt":     "Nombor dokumen terkini rosak; penomboran dihentikan.",
		"client_in_use":        "Pelanggan ini masih mempunyai sebut harga atau invois dan tidak boleh dipadam.",
		"invalid_transition":   "Perubahan status ini tidak dibenarkan.",
		"internal_error":       "Berlaku ralat.",
		"invalid_form":         "Borang tidak dapat dibaca.",
		"dashboard":            "Papan pemuka",
		"clients":              "Pelanggan",
		"quotes":               "Sebut harga",
		"invoices":             "Invois",
		"expenses":             "Perbelanjaan",
		"settings":             "Tetapan",
		"quote":                "Sebut harga",
		"invoice":              "Invois",
		"number":               "No.",
		"date":                 "Tarikh",
		"valid_until":          "Sah sehingga",
		"client":               "Pelanggan",
		"cust_id":              "ID pelanggan",
		"name":                 "Nama",
		"address":              "Alamat",
		"phone":                "Telefon",
		"project_title":        "Projek",
		"notes":                "Nota",
		"terms":                "Terma & syarat",
		"description":          "Keterangan",
		"quantity":             "Kuantiti",
		"unit_price":           "Harga seunit",
		"amount":               "Jumlah",
		"subtotal":             "Jumlah kecil",
		"tax":                  "Cukai",
		"tax_rate":             "Kadar cukai",
		"discount":             "Diskaun",
		"total":                "Jumlah besar",
		"status":               "Status",
		"category":             "Kategori",
		"company_name":         "Nama syarikat",
		"bank_details":         "Butiran bank",
		"revenue":              "Hasil",
		"pending":              "Bayaran tertunggak",
		"net_profit":           "Untung bersih",
		"active_quotes":        "Sebut harga aktif",
		"recent_invoices":      "Invois terkini",
		"by_category":          "Mengikut kategori",
		"from":                 "Dari",
		"to":                   "Hingga",
		"search":               "Cari",
		"all":                  "Semua",
		"new_client":           "Pelanggan baru",
		"new_quote":            "Sebut harga baru",
		"new_invoice":          "Invois baru",
		"add_item":             "Tambah baris",
		"add_expense":          "Tambah perbelanjaan",
		"save":                 "Simpan",
		"edit":                 "Sunting",
		"delete":               "Padam",
		"cancel":               "Batal",
		"filter":               "Tapis",
		"mark_paid":            "Tanda sudah bayar",
		"mark_unpaid":          "Tanda belum bayar",
		"confirm_delete":       "Padam secara kekal?",
		"no_records":           "Tiada rekod lagi.",
		"previous":             "Sebelum",
		"next":                 "Seterusnya",
		"saved":                "Disimpan.",
		"payment_to":           "Bayaran kepada",
		"Pending":              "Menunggu",
		"Unpaid":               "Belum dibayar",
		"Paid":                 "Dibayar",
		"Fuel":                 "Bahan api",
		"Wages":                "Gaji",
		"Materials":            "Bahan",
		"Tools":                "Peralatan",
		"Food":                 "Makanan",
		"Disposal":             "Pelupusan",
		"Other":                "Lain-lain",
	},
}

// T translates code into lang, falling back to English and then to the code.
func T(lang, code string) string {
	if m, ok := messages[lang]; ok {
		if s, ok := m[code]; ok {
			return s
		}
	}
	if s, ok := messages[DefaultLang][code]; ok {
		return s
	}
	return code
}

var matcher = language.NewMatcher([]language.Tag{language.English, language.Malay})

// DetectLanguage picks a supported language from an Accept-Language header.
func DetectLanguage(acceptLanguage string) string {
	if strings.TrimSpace(acceptLanguage) == "" {
		return DefaultLang
	}
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return DefaultLang
	}
	_, idx, conf := matcher.Match(tags...)
	if conf == language.No {
		return DefaultLang
	}
	return Supported[idx]
}

// IsSupported reports whether lang has a message table.
func IsSupported(lang string) bool {
	_, ok := messages[lang]
	return ok
}

func printer(lang string) *message.Printer {
	if lang == "ms" {
		return message.NewPrinter(language.Malay)
	}
	return message.NewPrinter(language.English)
}

// Money formats amount with two decimals and grouping, prefixed by currency:
// "RM 2,500.00".
func Money(lang, currency string, amount decimal.Decimal) string {
	f, _ := amount.Round(2).Float64()
	s := printer(lang).Sprint(number.Decimal(f, number.Scale(2)))
	if currency == "" {
		return s
	}
	return currency + " " + s
}

// Quantity formats a line quantity without trailing zeros.
func Quantity(lang string, q decimal.Decimal) string {
	f, _ := q.Float64()
	return printer(lang).Sprint(number.Decimal(f, number.MaxFractionDigits(3)))
}
