package utils

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

var wechatHTTPClient = &http.Client{Timeout: 10 * time.Second}

// WechatSession 微信小程序 code2session 接口的响应
type WechatSession struct {
	OpenID     string `json:"openid"`
	SessionKey string `json:"session_key"`
	UnionID    string `json:"unionid"`
	ErrCode    int    `json:"errcode"`
	ErrMsg     string `json:"errmsg"`
}

// WechatCode2Session 用小程序登录凭证换取用户openid
func WechatCode2Session(appID, appSecret, code string) (*WechatSession, error) {
	endpoint := fmt.Sprintf(
		"https://api.weixin.qq.com/sns/jscode2session?appid=%s&secret=%s&js_code=%s&grant_type=authorization_code",
		url.QueryEscape(appID), url.QueryEscape(appSecret), url.QueryEscape(code),
	)

	resp, err := wechatHTTPClient.Get(endpoint)
	if err != nil {
		return nil, fmt.Errorf("微信登录接口请求失败: %w", err)
	}
	defer resp.Body.Close()

	var session WechatSession
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return nil, fmt.Errorf("微信登录响应解析失败: %w", err)
	}
	if session.ErrCode != 0 {
		return nil, fmt.Errorf("微信登录失败: %d %s", session.ErrCode, session.ErrMsg)
	}
	if session.OpenID == "" {
		return nil, fmt.Errorf("微信登录响应中缺少openid")
	}
	return &session, nil
}
