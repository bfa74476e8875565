package browser

import (
	"encoding/json"
	"fmt"
)

func jsString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

// loginScript posta o formulário de login e resolve com o uid da sessão
func loginScript(username, password string) string {
	return fmt.Sprintf(`(async () => {
  const body = new URLSearchParams({p: "chk_login", langx: "zh-cn", username: %s, password: %s, app: "N", auto: "CZGFDC"});
  const res = await fetch("/transform.php", {method: "POST", body});
  const xml = new DOMParser().parseFromString(await res.text(), "text/xml");
  const uid = xml.querySelector("uid");
  return uid ? uid.textContent : "";
})()`, jsString(username), jsString(password))
}

// oddsScript busca todos os games da partida e devolve JSON no formato RawMarketDocument
func oddsScript(uid, gid, showtype string) string {
	return fmt.Sprintf(`(async () => {
  const body = new URLSearchParams({p: "get_game_more", uid: %s, gid: %s, showtype: %s, ltype: "3", isRB: "N", langx: "zh-cn"});
  const res = await fetch("/transform.php", {method: "POST", body});
  const xml = new DOMParser().parseFromString(await res.text(), "text/xml");
  const keys = ["gid","ptype","strong","hstrong","ratio","hratio","ior_RH","ior_RC","ior_HRH","ior_HRC",
                "ratio_o","ratio_ho","ior_OUC","ior_OUH","ior_HOUC","ior_HOUH"];
  const games = [...xml.querySelectorAll("game")].map(g => {
    const o = {};
    for (const k of keys) { const n = g.querySelector(k); o[k] = n ? n.textContent.trim() : ""; }
    return o;
  });
  return JSON.stringify({gid: %s, games});
})()`, jsString(uid), jsString(gid), jsString(showtype), jsString(gid))
}

// fixturesScript lista os jogos de hoje e de amanhã
func fixturesScript(uid string) string {
	return fmt.Sprintf(`(async () => {
  const out = [];
  for (const showtype of ["today", "early"]) {
    const body = new URLSearchParams({p: "get_game_list", uid: %s, showtype, gtype: "ft", rtype: "r", ltype: "3", langx: "zh-cn"});
    const res = await fetch("/transform.php", {method: "POST", body});
    const xml = new DOMParser().parseFromString(await res.text(), "text/xml");
    for (const ec of xml.querySelectorAll("ec")) {
      const g = ec.querySelector("game");
      if (!g) continue;
      const t = k => { const n = g.querySelector(k); return n ? n.textContent.trim() : ""; };
      out.push({gid: t("GID"), league: t("LEAGUE"), team_h: t("TEAM_H"), team_c: t("TEAM_C"), datetime: t("DATETIME")});
    }
  }
  return JSON.stringify(out);
})()`, jsString(uid))
}
