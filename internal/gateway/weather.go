package gateway

import (
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
)

// weatherProviderResponse は外部天気プロバイダのレスポンスのうち、
// gatewayが読み取るフィールドだけを表した型。その他のフィールドは
// デコード時に捨てられ、呼び出し元へ漏れない。
type weatherProviderResponse struct {
	Main struct {
		Temp     float64 `json:"temp"`
		Humidity float64 `json:"humidity"`
	} `json:"main"`
	Weather []struct {
		Description string `json:"description"`
	} `json:"weather"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
}

// handleWeather は外部プロバイダから現在の天気を取得するハンドラを返す。
// レスポンスは気温・湿度・説明・風速の4フィールドに絞り込まれる。
func (s *Server) handleWeather() gin.HandlerFunc {
	return func(c *gin.Context) {
		params := url.Values{}
		params.Set("id", s.weather.CityID)
		params.Set("appid", s.weather.APIKey)
		params.Set("units", "metric")

		body, err := s.weatherClient.Get(c.Request.Context(), "/weather", params)
		if err != nil {
			s.renderError(c, err)
			return
		}

		var provider weatherProviderResponse
		if err := json.Unmarshal(body, &provider); err != nil {
			s.renderError(c, err)
			return
		}

		description := ""
		if len(provider.Weather) > 0 {
			description = provider.Weather[0].Description
		}

		c.JSON(http.StatusOK, gin.H{
			"temperature": provider.Main.Temp,
			"humidity":    provider.Main.Humidity,
			"description": description,
			"wind_speed":  provider.Wind.Speed,
		})
	}
}
