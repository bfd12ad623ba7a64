package symbols

// SET100 is the built-in universe used when no symbols file is available.
var SET100 = []string{
	"DELTA", "ADVANC", "PTT", "AOT", "GULF", "KBANK", "SCB", "PTTEP", "KTB", "CPALL",
	"TRUE", "BDMS", "BBL", "CPN", "THAI", "SCC", "TTB", "BAY", "CPAXT", "OR",
	"CPF", "BH", "MINT", "CRC", "TLI", "GPSC", "PTTGC", "IVL", "TISCO", "HMPRO",
	"BEM", "TOP", "MTC", "KTC", "SCGP", "RATCH", "AWC", "TFMAMA", "BJC", "EGCO",
	"TIDLOR", "KKP", "TCAP", "MRDIYT", "COM7", "CCET", "TU", "BANPU", "WHA", "OSP",
	"SAWAD", "ITC", "LH", "SCCC", "CBG", "CENTEL", "BTS", "BPP", "BGRIM", "SPI",
	"BCP", "TTW", "GLOBAL", "BTG", "JTS", "BLA", "BKIH", "SPALI", "BA", "MEGA",
	"TOA", "TFG", "AP", "BCH", "AEONTS", "SPRC", "MBK", "KCE", "STGT", "BAM",
	"VGI", "SIRI", "RCL", "TASCO", "RAM", "BCPG", "PB", "IRPC", "CREDIT", "CKP",
	"EA", "CK", "PLANB", "TVO", "AURA", "SPC", "STA", "VIBHA", "LHFG", "AMATA",
}
