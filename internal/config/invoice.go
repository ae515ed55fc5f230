package config

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/smallbiznis/hourstay/internal/invoice/format"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// InvoiceSettings describes the seller block and numbering of issued tax
// invoices.
type InvoiceSettings struct {
	SellerName       string   `mapstructure:"sellerName"`
	SellerGSTIN      string   `mapstructure:"sellerGstin"`
	SellerAddress    string   `mapstructure:"sellerAddress"`
	SellerState      string   `mapstructure:"sellerState"`
	SellerEmail      string   `mapstructure:"sellerEmail"`
	NumberTemplate   string   `mapstructure:"numberTemplate"`
	NumberPrefix     string   `mapstructure:"numberPrefix"`
	AccommodationSAC string   `mapstructure:"accommodationSac"`
	ServiceSAC       string   `mapstructure:"serviceSac"`
	PrimaryColor     string   `mapstructure:"primaryColor"`
	FooterNotes      []string `mapstructure:"footerNotes"`
}

var gstinPattern = regexp.MustCompile(`^[0-9]{2}[A-Z0-9]{10}[0-9A-Z]{3}$`)

func DefaultInvoiceSettings() InvoiceSettings {
	return InvoiceSettings{
		SellerName:       "Hourstay Hospitality Pvt. Ltd.",
		SellerGSTIN:      "29AABCH1234M1Z5",
		SellerAddress:    "Bengaluru, Karnataka",
		SellerState:      "Karnataka",
		SellerEmail:      "billing@hourstay.in",
		NumberTemplate:   "{PREFIX}/{FY}/{SEQ5}",
		NumberPrefix:     "HS",
		AccommodationSAC: "996111",
		ServiceSAC:       "99611",
		PrimaryColor:     "#1f4e79",
		FooterNotes: []string{
			"This is a computer generated invoice and does not require a signature.",
		},
	}
}

type InvoiceSettingsHolder struct {
	current atomic.Value // holds InvoiceSettings
	version atomic.Int64
}

// NewStaticInvoiceSettingsHolder returns a holder that never reloads.
func NewStaticInvoiceSettingsHolder(settings InvoiceSettings) *InvoiceSettingsHolder {
	holder := &InvoiceSettingsHolder{}
	holder.current.Store(settings)
	holder.version.Store(1)
	return holder
}

// NewInvoiceSettingsHolder loads invoice.yml and reloads it on change. Missing
// files fall back to defaults; invalid reloads keep the previous settings.
func NewInvoiceSettingsHolder(log *zap.Logger) (*InvoiceSettingsHolder, error) {
	log = log.Named("config.invoice")

	v := viper.New()
	v.SetConfigName("invoice")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/hourstay/config")
	v.AddConfigPath("/etc/hourstay")
	v.AddConfigPath(".")

	v.SetEnvPrefix("HOURSTAY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setInvoiceDefaults(v, DefaultInvoiceSettings())

	fileFound := true
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		fileFound = false
	}

	cfg, err := unmarshalInvoiceSettings(v)
	if err != nil {
		return nil, err
	}

	holder := NewStaticInvoiceSettingsHolder(cfg)
	if !fileFound {
		log.Info("invoice config file not found, using defaults")
		return holder, nil
	}

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		reloadInvoiceSettings(v, holder, log, e.Name)
	})

	return holder, nil
}

// reloadInvoiceSettings stores the settings viper currently holds, keeping the
// previous ones when they fail validation.
func reloadInvoiceSettings(v *viper.Viper, holder *InvoiceSettingsHolder, log *zap.Logger, file string) bool {
	updated, err := unmarshalInvoiceSettings(v)
	if err != nil {
		log.Warn("invalid invoice config ignored", zap.String("file", file), zap.Error(err))
		return false
	}
	holder.Store(updated)
	log.Info("invoice config reloaded", zap.String("file", file), zap.Int64("version", holder.Version()))
	return true
}

func (h *InvoiceSettingsHolder) Get() InvoiceSettings {
	return h.current.Load().(InvoiceSettings)
}

// Version increments every time new settings are stored.
func (h *InvoiceSettingsHolder) Version() int64 {
	return h.version.Load()
}

func (h *InvoiceSettingsHolder) Store(settings InvoiceSettings) {
	h.current.Store(settings)
	h.version.Add(1)
}

func setInvoiceDefaults(v *viper.Viper, d InvoiceSettings) {
	v.SetDefault("invoice.sellerName", d.SellerName)
	v.SetDefault("invoice.sellerGstin", d.SellerGSTIN)
	v.SetDefault("invoice.sellerAddress", d.SellerAddress)
	v.SetDefault("invoice.sellerState", d.SellerState)
	v.SetDefault("invoice.sellerEmail", d.SellerEmail)
	v.SetDefault("invoice.numberTemplate", d.NumberTemplate)
	v.SetDefault("invoice.numberPrefix", d.NumberPrefix)
	v.SetDefault("invoice.accommodationSac", d.AccommodationSAC)
	v.SetDefault("invoice.serviceSac", d.ServiceSAC)
	v.SetDefault("invoice.primaryColor", d.PrimaryColor)
	v.SetDefault("invoice.footerNotes", d.FooterNotes)
}

func unmarshalInvoiceSettings(v *viper.Viper) (InvoiceSettings, error) {
	// Unmarshal merges defaults per leaf key, UnmarshalKey would not.
	var file struct {
		Invoice InvoiceSettings `mapstructure:"invoice"`
	}
	if err := v.Unmarshal(&file); err != nil {
		return InvoiceSettings{}, err
	}
	if err := ValidateInvoiceSettings(file.Invoice); err != nil {
		return InvoiceSettings{}, err
	}
	return file.Invoice, nil
}

func ValidateInvoiceSettings(cfg InvoiceSettings) error {
	if strings.TrimSpace(cfg.SellerName) == "" {
		return errors.New("invoice.sellerName cannot be empty")
	}
	if !gstinPattern.MatchString(strings.ToUpper(strings.TrimSpace(cfg.SellerGSTIN))) {
		return errors.New("invoice.sellerGstin is not a valid GSTIN")
	}
	if err := format.ValidateTemplate(cfg.NumberTemplate, cfg.NumberPrefix); err != nil {
		return fmt.Errorf("invoice.numberTemplate with prefix %q: %w", cfg.NumberPrefix, err)
	}
	if strings.TrimSpace(cfg.AccommodationSAC) == "" || strings.TrimSpace(cfg.ServiceSAC) == "" {
		return errors.New("invoice SAC codes cannot be empty")
	}
	return nil
}
