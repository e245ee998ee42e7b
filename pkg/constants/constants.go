package constants

import "time"

// API 相关常量
const (
	APIBaseURL        = "https://api.fofa.info"
	APISearchEndpoint = "/v1/search"
	WebBaseURL        = "https://fofa.info"
	WebSearchEndpoint = "/result"
	AppID             = "9e9fb94330d97833acfbc041ee1a76793f1bc691"
	ContentTypeJSON   = "application/json"
	AcceptAll         = "*/*"
)

// Fofa 业务错误码
const (
	CodeOK              = 0
	CodeIPBanned        = -3000  // IP被封禁
	CodeCaptchaRequired = 850100 // 需要完成验证码（2025年新机制）
)

// 客户端配置常量
const (
	DefaultEndCount      = 20
	DefaultMaxPages      = 20
	DefaultTimeSleep     = 500 * time.Millisecond
	DefaultDirectSleep   = 1 * time.Second
	DefaultClientTimeout = 180 * time.Second
	DefaultRetryCount    = 3
	MaxPageSize          = 10000 // API单次查询上限
)

// 代理收集相关常量
const (
	SourceFetchTimeout   = 5 * time.Second
	SourceFetchWorkers   = 8
	CollectBudget        = 25 * time.Second
	ValidateTimeout      = 1500 * time.Millisecond
	ValidateWorkers      = 10
	FirstWaveBudget      = 30 * time.Second
	SecondWaveBudget     = 60 * time.Second
	FirstWaveLimit       = 20 // 优先验证前20个提高成功率
	SecondWaveLimit      = 50
	MinAdoptDirect       = 5 // 首轮达到该数量即可直接采用
	ProxyFailThreshold   = 3
	SourceCacheTTL       = 10 * time.Minute
	PoolWaitAttempts     = 8
	PoolWaitInterval     = 1 * time.Second
	PoolReadyWait        = 15 * time.Second
	RetryPassMinProxies  = 3
	MaxConsecutiveErrors = 3
)

// 重试和延迟
const (
	RetryBaseDelay = 2 * time.Second
)

// 输出相关常量
const (
	DefaultOutputName = "fofa_results"
	FormatJSON        = "json"
	FormatCSV         = "csv"
	FormatTXT         = "txt"
)

// 代理源列表（纯文本host:port格式）
var ProxySources = []string{
	"https://raw.githubusercontent.com/TheSpeedX/PROXY-List/master/http.txt",
	"https://raw.githubusercontent.com/mertguvencli/http-proxy-list/main/proxies.txt",
	"https://raw.githubusercontent.com/ShiftyTR/Proxy-List/master/http.txt",
	"https://raw.githubusercontent.com/sunny9577/proxy-scraper/master/proxies/http.txt",
	"https://raw.githubusercontent.com/roosterkid/openproxylist/main/http.txt",
	"https://raw.githubusercontent.com/mmpx12/proxy-list/master/http.txt",
	"https://raw.githubusercontent.com/rdavydov/proxy-list/main/proxies/http.txt",
}

// API 响应消息中的封禁特征串
var BanMessageMarkers = []string{
	"ip访问异常",
	"爬虫",
	"禁止访问",
	"访问异常",
	"验证码",
}

// WEB 页面中的封禁特征串
var BanHTMLMarkers = []string{
	"[-3000]",
	"IP访问异常",
	"爬虫",
	"禁止访问",
	"访问异常",
}
